// Package all links every sink backend into a binary with a single blank
// import. main packages import it; library code imports only the backends it
// needs.
package all

import (
	_ "feateng/internal/storage/csvfile"
	_ "feateng/internal/storage/postgres"
	_ "feateng/internal/storage/sqlite"
)
