package main

import (
	"fmt"

	"github.com/wu-wayne/tiny-service/internal/version"
)

// printVersion 输出注入的版本 + 提交信息。
func printVersion() {
	fmt.Fprintln(stdOut, version.Full())
}
