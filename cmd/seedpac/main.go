// seedpac siembra (o actualiza) la configuración PAC de una empresa en la
// tabla pac_configurations. Las credenciales salen de las variables PAC_*
// (ver pkg/config); pensado para ambientes de desarrollo y staging.
//
// Uso: go run ./cmd/seedpac -company <id> [-provider solucionfactible|facturama]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nominamx/timbrado-api/internal/infrastructure/postgres"
	"github.com/nominamx/timbrado-api/pkg/config"
)

func main() {
	company := flag.String("company", "", "identificador de la empresa")
	provider := flag.String("provider", "", "proveedor PAC (por defecto PAC_PROVIDER)")
	flag.Parse()

	if *company == "" {
		fmt.Fprintln(os.Stderr, "falta -company")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if *provider == "" {
		*provider = cfg.PAC.Provider
	}
	if *provider == "" || cfg.PAC.Username == "" || cfg.PAC.Password == "" {
		fmt.Fprintln(os.Stderr, "PAC_PROVIDER, PAC_USERNAME y PAC_PASSWORD son obligatorios")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		INSERT INTO pac_configurations (company_id, provider, username, password, sandbox)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id) DO UPDATE
		SET provider = EXCLUDED.provider,
		    username = EXCLUDED.username,
		    password = EXCLUDED.password,
		    sandbox  = EXCLUDED.sandbox`,
		*company, *provider, cfg.PAC.Username, cfg.PAC.Password, cfg.PAC.Sandbox,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sembrar configuración: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuración PAC sembrada para %s (proveedor %s, sandbox=%v)\n",
		*company, *provider, cfg.PAC.Sandbox)
}
