package cmd

import (
	"EchoFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动EchoFM服务器",
	Long:  `启动EchoFM音乐发现系统的HTTP服务器，提供搜索、推荐与用户活动API`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
