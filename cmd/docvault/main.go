// Package main docvault 命令行入口.
package main

import (
	"os"

	"github.com/yeisme/docvault/pkg/cmd"
)

//	@title						DocVault API
//	@version					1.0
//	@description				PDF 文档入库、AI 分类、人工审核、归档与检索.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	// cobra 已经把错误打印到 stderr
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
