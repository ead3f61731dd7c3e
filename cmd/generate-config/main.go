// Command generate-config writes an example configuration with every default
// filled in.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Rani367/Hativon-sub000/internal/config"
)

const header = `# Hativon draft server configuration example.
# Copy this file to config.yaml and adjust as needed.
#
# The server reads site, server, database, auth and logging. draft-edit reads
# autosave and logging.
#
# Secrets come from the environment:
#   ED25519_PUBKEY        public key for ed25519 auth (server)
#   CLERK_API             Clerk secret key for clerk auth (server)
#   DATABASE_DSN          overrides database.dsn
#   ED25519_PRIVKEY_FILE  private key used by draft-edit
#   CLERK_SESSION_TOKEN   session token used by draft-edit with clerk auth

`

func render() (string, error) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	var b strings.Builder
	b.WriteString(header)
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func main() {
	out := flag.String("o", "config.example.yaml", "Output file, - for stdout")
	flag.Parse()

	output, err := render()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	if *out == "-" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(*out, []byte(output), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", *out)
}
