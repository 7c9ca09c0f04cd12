package main

import (
	"github.com/trezcool/confeval/storage/database"
)

func (cli *commandLine) createDB() error {
	return database.CreateIfNotExist(cli.conf)
}
