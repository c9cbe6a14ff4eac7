package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"GuessFM/catalog"
	"GuessFM/config"
	"GuessFM/logger"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "扫描音乐目录",
	Long:  `扫描配置的音乐根目录并打印识别到的曲目，用于验证目录内容和元数据读取。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		fmt.Printf("扫描目录: %s\n", cfg.RootDirectory)

		cat, err := catalog.Scan(cfg.RootDirectory)
		if err != nil {
			log.Fatalf("扫描失败: %v", err)
		}

		fmt.Printf("共识别到 %d 首曲目:\n", cat.Len())
		for i := 0; i < cat.Len(); i++ {
			track := cat.Track(i)
			fmt.Printf("  [%s] %s\n", track.ID[:8], catalog.DisplayName(track))
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
