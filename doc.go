// Package schemaconf provides declarative, typed configuration schemas for Go
// applications with layered sources: schema defaults, in-memory mappings,
// YAML/JSON/TOML files, environment variables and command-line flags.
//
// Features:
//   - Ordered schemas with typed fields, defaults and required markers
//   - Nested sections and schema inheritance through base schemas
//   - Struct-derived schemas via SchemaOf
//   - Extra-keys policy (warn, raise, ignore), defaulting from SCHEMACONF_EXTRA
//   - Dotted-path access: Get, Set, Has, Section
//   - pflag and cobra integration with YAML literals for lists and mappings
//   - Serialization back to YAML in schema order, plus JSON and TOML
//   - Decoding into structs with Scan
//
// Quick Start:
//
//	server := schemaconf.NewSchema("Server").
//	    Field("host", schemaconf.String, "localhost").
//	    Field("port", schemaconf.Int, 8080)
//
//	app := schemaconf.NewSchema("App").
//	    Require("name", schemaconf.String).
//	    Field("tags", schemaconf.List, []any{}).
//	    Section("server", server)
//
//	tree, err := schemaconf.NewBuilder(app).
//	    WithFile("app.yaml").
//	    WithEnvPrefix("APP_").
//	    WithArgs(os.Args[1:]).
//	    Build()
//
//	port, _ := tree.GetInt("server.port")
//
// Command-line flags are named after dotted field paths:
//
//	app --name demo --server.port 9090 --tags '[a, b]' override.yaml
//
// Positional arguments are configuration files merged in order before the
// flag values are applied.
//
// Precedence, highest first:
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration files
//  4. In-memory values
//  5. Schema defaults
package schemaconf
