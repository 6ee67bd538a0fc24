// Command ddbsessctl inspects and edits session namespaces stored by
// ddbsession, in DynamoDB or Redis.
//
// Every flag can also be set through the environment as DDBSESS_<FLAG>
// (dashes become underscores), from .env / .env.local, or from a config file
// given with --config. DynamoDB options may also live under a "dynamodb"
// section of the config file using their snake_case names.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
