package badgerstore

import (
	"flag"
	"fmt"

	"ncc.pub/ncc/storage"
	"ncc.pub/ncc/storage/storeregistry"
)

var (
	flagBadgerDir string
)

func init() {
	storeregistry.MustRegister(storeregistry.Backend{
		Name:        "badger",
		Description: "Embedded BadgerDB record store (directory)",
		Usage:       storeregistry.UsageCLI | storeregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagBadgerDir, "badger-dir", "", "BadgerDB store directory (for --backend=badger)")
		},
		Open: func() (storage.RecordStore, func() error, error) {
			if flagBadgerDir == "" {
				return nil, nil, fmt.Errorf("missing --badger-dir")
			}
			st, err := Open(flagBadgerDir)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
	})
}
