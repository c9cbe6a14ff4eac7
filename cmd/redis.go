package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"GuessFM/cache"
	"GuessFM/config"
)

var flushClips bool

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并进行基本读写操作。加--flush-clips时清空全部片段缓存。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试Redis连接...")

		// 加载配置
		cfg := config.Load()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		// 连接Redis
		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		fmt.Println("Redis连接成功！")

		// 测试Redis基本操作
		fmt.Println("开始测试Redis基本操作...")
		if err := cache.TestRedis(); err != nil {
			log.Fatalf("Redis操作测试失败: %v", err)
		}
		fmt.Println("Redis基本操作测试成功！")

		if flushClips {
			fmt.Println("清空片段缓存...")
			if err := cache.DeleteClipPattern("clip:*"); err != nil {
				log.Fatalf("清空片段缓存失败: %v", err)
			}
			fmt.Println("片段缓存已清空。")
		}

		// 关闭连接
		if err := cache.CloseRedis(); err != nil {
			log.Printf("关闭Redis连接时发生错误: %v", err)
		}
		fmt.Println("Redis测试完成，连接已关闭。")
	},
}

func init() {
	redisCmd.Flags().BoolVar(&flushClips, "flush-clips", false, "清空全部片段缓存")
	rootCmd.AddCommand(redisCmd)
}
