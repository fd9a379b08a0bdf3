/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/inkwell-blog/blogserver/config"
	"github.com/inkwell-blog/blogserver/internal/web"
	"github.com/spf13/cobra"
)

// webCmd represents the web command
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Starts the server-rendered blog frontend",
	Long: `Starts the server-rendered blog frontend, which proxies all
operations to the API backend. Usage:

	blogserver web
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		srv := web.New(cfg, logger)
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(webCmd)
}
