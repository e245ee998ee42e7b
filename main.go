package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"fofahack/config"
	"fofahack/log"
	"fofahack/models"
	"fofahack/output"
	"fofahack/service"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Fofa 搜索工具

用法:
  fofahack [选项] "查询语句"

示例:
  fofahack "app='Apache'"
  fofahack -n 50 -f csv "port=80"
  fofahack -no-proxy "domain='example.com'"
  fofahack -count-only "title='管理后台'"

选项:
`)
	flag.PrintDefaults()
}

func main() {
	var (
		count     = flag.Int("n", 0, "目标结果数量 (默认20)")
		format    = flag.String("f", "", "输出格式: json/csv/txt (默认json)")
		outName   = flag.String("o", "", "输出文件名，不含扩展名")
		noProxy   = flag.Bool("no-proxy", false, "禁用自动代理收集")
		debug     = flag.Bool("debug", false, "调试模式")
		countOnly = flag.Bool("count-only", false, "只查询匹配总数")
	)
	flag.Usage = usage
	flag.Parse()

	query := flag.Arg(0)
	if query == "" {
		usage()
		os.Exit(2)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal("加载配置失败: %v", err)
	}

	// 命令行参数覆盖环境变量配置
	if *count > 0 {
		cfg.Search.EndCount = *count
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *outName != "" {
		cfg.Output.Name = *outName
	}
	if *noProxy {
		cfg.Proxy.Enabled = false
		cfg.Proxy.AllowDirect = true
	}
	if *debug {
		cfg.Search.Debug = true
		log.EnableDebug()
	}

	writer, err := output.NewWriter(cfg.Output.Name, cfg.Output.Format)
	if err != nil {
		log.Fatal("输出配置错误: %v", err)
	}

	orchestrator, err := service.NewOrchestrator(cfg)
	if err != nil {
		log.Fatal("初始化失败: %v", err)
	}

	color.Cyan("Fofa 搜索")
	fmt.Printf("查询: %s\n", query)
	fmt.Printf("数量: %d\n", cfg.EndCount())
	fmt.Printf("格式: %s\n", cfg.Output.Format)
	if cfg.UseProxy() {
		fmt.Println("代理: 自动收集")
	} else {
		fmt.Println("代理: 无")
	}

	ctx := context.Background()

	if *countOnly {
		total, err := orchestrator.GetCount(ctx, query)
		if err != nil {
			log.Fatal("查询总数失败: %v", err)
		}
		fmt.Printf("匹配总数: %d\n", total)
		return
	}

	results, err := orchestrator.Run(ctx, query)
	if err != nil {
		log.Fatal("搜索失败: %v", err)
	}

	if err := writer.Write(results); err != nil {
		log.Error("保存结果失败: %v", err)
	}

	printStats(orchestrator.Stats())
	printResults(results)

	if len(results) == 0 {
		os.Exit(1)
	}
}

// printStats 打印搜索统计
func printStats(stats map[string]interface{}) {
	fmt.Println("\n搜索统计:")
	fmt.Printf("  总请求数: %v\n", stats["total"])
	fmt.Printf("  成功: %v\n", stats["success"])
	fmt.Printf("  失败: %v\n", stats["failed"])
	fmt.Printf("  成功率: %.1f%%\n", stats["rate"])
	fmt.Printf("  封禁次数: %v\n", stats["bans"])
	fmt.Printf("  当前模式: %v\n", stats["mode"])
	fmt.Printf("  代理总数: %v\n", stats["pool_total"])
	if ready, ok := stats["pool_is_ready"].(bool); ok && ready {
		fmt.Println("  代理状态: 就绪")
	} else {
		fmt.Println("  代理状态: 收集中")
	}
}

// printResults 打印前3条结果预览
func printResults(results []models.SearchResult) {
	if len(results) == 0 {
		return
	}

	fmt.Println("\n前3条结果:")
	for i, r := range results {
		if i >= 3 {
			break
		}
		fmt.Printf("  %d. %s\n", i+1, r.ToTxt())
		if r.IP != "" {
			fmt.Printf("     IP: %s:%d\n", r.IP, r.Port)
		}
		if r.Title != "" {
			fmt.Printf("     标题: %s\n", r.Title)
		}
	}
}
