package main

import (
	"github.com/uoy-im/mysql-to-postgresql/cmd"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	cmd.Execute()
}
