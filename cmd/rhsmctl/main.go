package main

import (
	"github.com/treydock/puppet-subscription-manager/pkg/cli"
)

func main() {
	cli.Execute()
}
