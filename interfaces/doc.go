// Package interfaces defines the core contracts of the storage router,
// separating interface definitions from implementations.
//
// # Driver Interfaces
//
// StorageDriver is the identity every driver carries; the eight capability
// interfaces (MutableURLMaker, URLHandler, ImmutableGetter, ImmutablePutter,
// ImmutableDeleter, MutableGetter, MutablePutter, MutableDeleter) are all
// optional. The router discovers capabilities through type assertions and
// skips drivers that lack the one an operation needs, unless the caller
// marked that driver as required.
//
// # Collaborator Interfaces
//
// URLFetcher abstracts the generic "fetch bytes from URL" transport used for
// URL hints. ProfileTokenCodec abstracts the legacy profile-token wire
// format, which is owned outside this module.
//
// # Data IDs
//
// Mutable data is addressed by fully-qualified data IDs of the form
// "name" or "name:data_id", where the name must pass external name-validity
// rules (NameValidator).
package interfaces
