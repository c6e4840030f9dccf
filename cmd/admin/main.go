package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/admin"
	"github.com/dmitrijs2005/gophauth/internal/server"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mfa"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	opts, err := admin.ParseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, st, err := server.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	hasher, err := password.NewArgon2(password.DefaultArgon2Config())
	if err != nil {
		log.Printf("%v", err)
		return
	}

	b := admin.NewBootstrapper(st, hasher, mfa.NewProvisioner(), cfg.MFAIssuer, os.Stdin, os.Stdout)
	if err := b.Run(ctx, opts); err != nil {
		log.Printf("%v", err)
		return
	}

}
