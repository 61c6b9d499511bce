// Package main 是离线命令行工具 stressctl 的入口。
package main

import "stress-guru-go/internal/cli"

func main() {
	cli.Execute()
}
