package cmd

import (
	"github.com/spf13/cobra"

	"GuessFM/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动GuessFM服务器",
	Long:  `启动猜歌游戏的HTTP服务器，提供API服务和Web界面`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
