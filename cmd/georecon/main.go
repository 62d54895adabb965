// georecon serves entity reconciliation against a GeoNames-style gazetteer.
package main

import (
	"os"

	"github.com/kailas-cloud/georecon/cmd/georecon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
