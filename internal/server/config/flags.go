package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/filevault/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":5000")
//	-d string     PostgreSQL DSN
//	-f string     blob root directory
//	-s string     session directory (empty keeps sessions in memory)
//	-t duration   session lifetime
//	-blob string  blob backend: fs or s3
//	-u string     S3 user
//	-p string     S3 password
//	-b string     S3 bucket
//	-g string     S3 region
//	-e string     S3 endpoint (e.g. "http://127.0.0.1:9000")
//	-q string     queue backend: postgres or memory
//	-w int        in-process workers
//	-r float      /connect requests per second
//	-m int        maximum JSON request body in bytes
//
// os.Args is filtered with flagx.FilterArgs first so that flags owned by
// other parsers do not trip this one.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-f", "-s", "-t", "-blob", "-u", "-p", "-b", "-g", "-e", "-q", "-w", "-r", "-m",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddress, "a", config.HTTPAddress, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BlobRoot, "f", config.BlobRoot, "blob root directory")
	fs.StringVar(&config.SessionDir, "s", config.SessionDir, "session directory")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session lifetime")
	fs.StringVar(&config.BlobBackend, "blob", config.BlobBackend, "blob backend (fs|s3)")
	fs.StringVar(&config.S3User, "u", config.S3User, "S3 user")
	fs.StringVar(&config.S3Password, "p", config.S3Password, "S3 password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3Endpoint, "e", config.S3Endpoint, "S3 endpoint")
	fs.StringVar(&config.QueueBackend, "q", config.QueueBackend, "queue backend (postgres|memory)")
	fs.IntVar(&config.Workers, "w", config.Workers, "in-process workers")
	fs.Float64Var(&config.ConnectRate, "r", config.ConnectRate, "connect requests per second")
	fs.Int64Var(&config.MaxBodyBytes, "m", config.MaxBodyBytes, "maximum request body in bytes")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
