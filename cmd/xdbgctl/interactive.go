//go:build !windows

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// cmdInteractive 交互模式入口。先探测连通性，失败时直接报错而不进入循环。
func cmdInteractive(ctx context.Context, socketPath string, timeout time.Duration) error {
	client := NewClient(socketPath, timeout)

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("无法连接到调试服务: %w", err)
	}

	fmt.Println("xdbgctl 交互模式")
	fmt.Println("输入 'help' 查看可用命令，'quit' 或 'exit' 退出")
	fmt.Println()

	return runREPL(ctx, client)
}

// runREPL 逐行读取并执行命令，直到 EOF、quit 或 ctx 取消。
// 标准输入的读取放在独立 goroutine 中，主循环通过 select 同时
// 监听输入与取消，保证 Ctrl+C 不会卡在 Scanner.Scan 上。
func runREPL(ctx context.Context, exec executor) error {
	lines, readErrs := startInputReader(ctx)

	for {
		fmt.Print("xdbg> ")

		select {
		case <-ctx.Done():
			fmt.Println("\n再见!")
			return nil
		case err := <-readErrs:
			return fmt.Errorf("读取输入错误: %w", err)
		case line, ok := <-lines:
			if !ok {
				// 标准输入到达 EOF
				fmt.Println()
				return nil
			}
			if done := processLine(ctx, exec, strings.TrimSpace(line)); done {
				return nil
			}
		}
	}
}

// startInputReader 在后台逐行读取标准输入。
// 设计决策: 行通道无缓冲，发送用 select 与 ctx.Done 竞争，取消后读取
// goroutine 立即退出，不会卡在发送端。错误通道带一个缓冲，Scanner
// 出错时投递一次即可，即使没有接收方 goroutine 也能退出。
func startInputReader(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErrs := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case readErrs <- err:
			default:
			}
		}
		close(lines)
	}()

	return lines, readErrs
}

// processLine 处理一行输入。返回 true 表示会话应当结束。
func processLine(ctx context.Context, exec executor, line string) bool {
	switch line {
	case "":
		return false
	case "quit", "exit":
		fmt.Println("再见!")
		return true
	}

	if parts := parseCommandLine(line); len(parts) > 0 {
		executeAndPrint(ctx, exec, parts[0], parts[1:])
	}
	return false
}

// executeAndPrint 执行一条命令并把结果写到终端。
// 传输错误与服务端拒绝都打到 stderr，正常输出走 stdout。
func executeAndPrint(ctx context.Context, exec executor, command string, args []string) {
	resp, err := exec.Execute(ctx, command, args)
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return
	case !resp.Success:
		fmt.Fprintf(os.Stderr, "错误: %s\n", resp.Error)
		return
	}

	if resp.Output != "" {
		fmt.Println(resp.Output)
	}
	if resp.Truncated {
		fmt.Fprintf(os.Stderr, "[警告: 输出已截断，原始大小: %d 字节]\n", resp.OriginalSize)
	}
	fmt.Println()
}

// parseCommandLine 把一行输入切分为命令与参数。
// 支持单双引号包裹含空格的参数，反斜杠转义下一个字符；
// 未闭合的引号按到行尾处理，已累积的内容仍然生效。
func parseCommandLine(line string) []string {
	var (
		parts   []string
		word    strings.Builder
		inQuote bool
		quote   rune
		escaped bool
	)

	flush := func() {
		if word.Len() > 0 {
			parts = append(parts, word.String())
			word.Reset()
		}
	}

	for _, r := range line {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case isQuoteStart(r, inQuote):
			inQuote = true
			quote = r
		case isQuoteEnd(r, quote, inQuote):
			inQuote = false
			quote = 0
		case isWordSeparator(r, inQuote):
			flush()
		default:
			word.WriteRune(r)
		}
	}
	flush()

	return parts
}

func isQuoteStart(r rune, inQuote bool) bool {
	return (r == '"' || r == '\'') && !inQuote
}

func isQuoteEnd(r, quoteChar rune, inQuote bool) bool {
	return r == quoteChar && inQuote
}

// 设计决策: 只有空格分词，Tab 原样保留。交互终端里 Tab 几乎总是触发
// 补全而非输入字符；真正从管道灌入的 Tab（echo -e "cmd\targ"）则按
// 参数内容对待。
func isWordSeparator(r rune, inQuote bool) bool {
	return r == ' ' && !inQuote
}
