// Command bbeditor は書誌エンティティ編集Webアプリケーションを起動する。
//
// サブコマンド: serve（デフォルト）, worker, migrate, healthcheck
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/bbeditor/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bbeditor: %v\n", err)
		os.Exit(1)
	}
}
