package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ruteri/storage-router/api"
	"github.com/ruteri/storage-router/api/clients"
	"github.com/urfave/cli/v2"
)

var flagServerAddr *cli.StringFlag = &cli.StringFlag{
	Name:  "router-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "Storage router address to request",
}
var flagPrivateKey *cli.StringFlag = &cli.StringFlag{
	Name:  "private-key",
	Usage: "Hex-encoded secp256k1 private key for signed operations",
}
var flagPublicKey *cli.StringFlag = &cli.StringFlag{
	Name:  "public-key",
	Usage: "Hex-encoded secp256k1 public key for signature verification",
}
var flagAddress *cli.StringFlag = &cli.StringFlag{
	Name:  "address",
	Usage: "Base58check address (or hex pubkey hash) of the expected signer",
}
var flagTxID *cli.StringFlag = &cli.StringFlag{
	Name:  "txid",
	Usage: "Transaction ID to bind the data to",
}
var flagDriver *cli.StringSliceFlag = &cli.StringSliceFlag{
	Name:  "driver",
	Usage: "restrict the operation to these driver names (repeatable)",
}
var flagRequired *cli.StringSliceFlag = &cli.StringSliceFlag{
	Name:  "required",
	Usage: "drivers that must succeed for the write to count (repeatable)",
}
var flagURL *cli.StringSliceFlag = &cli.StringSliceFlag{
	Name:  "url",
	Usage: "explicit URL to try for the fetch (repeatable)",
}
var flagRaw *cli.BoolFlag = &cli.BoolFlag{
	Name:  "raw",
	Usage: "return stored bytes without envelope decoding",
}

func main() {
	app := &cli.App{
		Name:  "storage client",
		Usage: "",
		Flags: []cli.Flag{
			flagServerAddr,
		},
		Commands: []*cli.Command{
			&cli.Command{
				Name:      "get-immutable",
				Usage:     "fetch immutable data by content hash",
				ArgsUsage: "<hash>",
				Flags: []cli.Flag{
					flagURL,
					flagDriver,
					flagRaw,
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one hash argument")
					}
					c := newClient(cCtx)
					params := clients.GetImmutableParams{
						Drivers: cCtx.StringSlice(flagDriver.Name),
						Raw:     cCtx.Bool(flagRaw.Name),
					}
					if urls := cCtx.StringSlice(flagURL.Name); len(urls) > 0 {
						params.URLHint = urls[0]
					}
					data, err := c.GetImmutable(cCtx.Context, cCtx.Args().First(), params)
					if err != nil {
						return err
					}
					_, err = os.Stdout.Write(data)
					return err
				},
			},
			&cli.Command{
				Name:      "put-immutable",
				Usage:     "store JSON from stdin as immutable data",
				ArgsUsage: "",
				Flags: []cli.Flag{
					flagTxID,
					flagRequired,
				},
				Action: func(cCtx *cli.Context) error {
					payload, err := readPayload()
					if err != nil {
						return err
					}
					c := newClient(cCtx)
					hash, err := c.PutImmutable(cCtx.Context, api.PutImmutableRequest{
						Payload:  payload,
						TxID:     cCtx.String(flagTxID.Name),
						Required: cCtx.StringSlice(flagRequired.Name),
					})
					if err != nil {
						return err
					}
					fmt.Println(hash)
					return nil
				},
			},
			&cli.Command{
				Name:      "delete-immutable",
				Usage:     "delete immutable data from every backend",
				ArgsUsage: "<hash>",
				Flags: []cli.Flag{
					flagTxID,
					flagPrivateKey,
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one hash argument")
					}
					c := newClient(cCtx)
					return c.DeleteImmutable(cCtx.Context, cCtx.Args().First(), api.DeleteImmutableRequest{
						TxID:       cCtx.String(flagTxID.Name),
						PrivateKey: cCtx.String(flagPrivateKey.Name),
					})
				},
			},
			&cli.Command{
				Name:      "get-mutable",
				Usage:     "fetch and verify a mutable record",
				ArgsUsage: "<fq-data-id>",
				Flags: []cli.Flag{
					flagPublicKey,
					flagAddress,
					flagURL,
					flagDriver,
					flagRaw,
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one data ID argument")
					}
					c := newClient(cCtx)
					data, err := c.GetMutable(cCtx.Context, cCtx.Args().First(), clients.GetMutableParams{
						PublicKey:   cCtx.String(flagPublicKey.Name),
						DataAddress: cCtx.String(flagAddress.Name),
						URLs:        cCtx.StringSlice(flagURL.Name),
						Drivers:     cCtx.StringSlice(flagDriver.Name),
						Raw:         cCtx.Bool(flagRaw.Name),
					})
					if err != nil {
						return err
					}
					_, err = os.Stdout.Write(data)
					return err
				},
			},
			&cli.Command{
				Name:      "put-mutable",
				Usage:     "sign JSON from stdin and store it as a mutable record",
				ArgsUsage: "<fq-data-id>",
				Flags: []cli.Flag{
					flagPrivateKey,
					flagRequired,
					flagDriver,
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one data ID argument")
					}
					payload, err := readPayload()
					if err != nil {
						return err
					}
					c := newClient(cCtx)
					return c.PutMutable(cCtx.Context, cCtx.Args().First(), api.PutMutableRequest{
						Payload:    payload,
						PrivateKey: cCtx.String(flagPrivateKey.Name),
						Required:   cCtx.StringSlice(flagRequired.Name),
						UseOnly:    cCtx.StringSlice(flagDriver.Name),
					})
				},
			},
			&cli.Command{
				Name:      "delete-mutable",
				Usage:     "delete a mutable record from every backend",
				ArgsUsage: "<fq-data-id>",
				Flags: []cli.Flag{
					flagPrivateKey,
					flagDriver,
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one data ID argument")
					}
					c := newClient(cCtx)
					return c.DeleteMutable(cCtx.Context, cCtx.Args().First(), api.DeleteMutableRequest{
						PrivateKey: cCtx.String(flagPrivateKey.Name),
						UseOnly:    cCtx.StringSlice(flagDriver.Name),
					})
				},
			},
			&cli.Command{
				Name:      "get-announcement",
				Usage:     "fetch announcement text by its chain-compatible hash",
				ArgsUsage: "<hash>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("expected exactly one hash argument")
					}
					c := newClient(cCtx)
					text, err := c.GetAnnouncement(cCtx.Context, cCtx.Args().First())
					if err != nil {
						return err
					}
					fmt.Print(text)
					return nil
				},
			},
			&cli.Command{
				Name:      "put-announcement",
				Usage:     "store announcement text from stdin",
				ArgsUsage: "",
				Flags: []cli.Flag{
					flagTxID,
				},
				Action: func(cCtx *cli.Context) error {
					text, err := io.ReadAll(os.Stdin)
					if err != nil {
						return err
					}
					c := newClient(cCtx)
					hash, err := c.PutAnnouncement(cCtx.Context, api.PutAnnouncementRequest{
						Text: string(text),
						TxID: cCtx.String(flagTxID.Name),
					})
					if err != nil {
						return err
					}
					fmt.Println(hash)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) *clients.RouterClient {
	return clients.NewRouterClient(cCtx.String(flagServerAddr.Name))
}

func readPayload() (json.RawMessage, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("stdin is not valid JSON")
	}
	return json.RawMessage(data), nil
}
