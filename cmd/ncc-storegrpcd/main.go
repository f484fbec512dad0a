package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"ncc.pub/ncc/chainrpc"
	"ncc.pub/ncc/model"
	"ncc.pub/ncc/storage/grpcstore"
	"ncc.pub/ncc/storage/storeregistry"

	_ "ncc.pub/ncc/storage/badgerstore"
	_ "ncc.pub/ncc/storage/localfs"
)

func main() {
	fs := flag.NewFlagSet("ncc-storegrpcd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7707", "listen address")
	backend := fs.String("backend", "localfs", "record store backend name")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")
	serveResolver := fs.Bool("resolver", true, "Also serve the chain resolver RPC backed by the store")

	storeregistry.RegisterFlags(fs, storeregistry.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range storeregistry.List(storeregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	store, closeFn, err := storeregistry.Open(*backend, storeregistry.UsageDaemon)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcstore.RegisterRecordStoreServer(s, &grpcstore.Server{Store: store})
	if *serveResolver {
		chainrpc.RegisterResolverServer(s, &chainrpc.Server{
			Options: model.ValidateOptions{Store: store},
		})
	}

	fmt.Fprintf(os.Stderr, "ncc-storegrpcd listening on %s (backend=%s)\n", lis.Addr().String(), *backend)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
