// Command tdscat reads TDS result streams and database queries, decodes
// their rows and writes them as JSON, tables, XLSX or broker messages.
package main

import (
	"os"

	_ "github.com/ruslano69/tdtp-tds/pkg/adapters/mssql"
	_ "github.com/ruslano69/tdtp-tds/pkg/adapters/mysql"
	_ "github.com/ruslano69/tdtp-tds/pkg/adapters/postgres"
	_ "github.com/ruslano69/tdtp-tds/pkg/adapters/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
