// Comando token emite un JWT de desarrollo para probar la API.
//
//	go run ./cmd/token -tenant t1 -user u1 -role admin
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/ledger-api/pkg/config"
	"github.com/jhoicas/ledger-api/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	tenant := flag.String("tenant", "", "tenant del token (obligatorio)")
	user := flag.String("user", "dev", "id de usuario")
	role := flag.String("role", "operator", "admin | operator")
	flag.Parse()

	if *tenant == "" || cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "se requieren -tenant y JWT_SECRET")
		os.Exit(2)
	}
	ttl := time.Duration(cfg.JWT.Expiration) * time.Minute
	token, err := jwt.Generate(cfg.JWT.Secret, *user, *tenant, *role, cfg.JWT.Issuer, ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generar token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
