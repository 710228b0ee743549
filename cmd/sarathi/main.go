package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"sarathi/internal/analytics"
	"sarathi/internal/api"
	"sarathi/internal/chat"
	"sarathi/internal/config"
	"sarathi/internal/i18n"
	"sarathi/internal/library"
	"sarathi/internal/planner"
	"sarathi/internal/practice"
	"sarathi/internal/secrets"
	"sarathi/internal/session"
	"sarathi/internal/storage"
)

const requestTimeout = 30 * time.Second

func main() {
	var (
		configPath string
		startTUI   bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON/JSONC")
	flag.BoolVar(&startTUI, "tui", false, "Start in full-screen mode")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	i18n.Init(cfg.UI.Locale)

	tokens := secrets.NewTokenStore(cfg.Storage.BaseDir)
	client := api.NewClient(cfg.API, tokens)

	// 本地库打不开时退化为纯内存运行。
	// The app degrades to memory-only when the local store cannot open.
	store, storeErr := storage.NewSQLiteStore(filepath.Join(cfg.Storage.BaseDir, "sarathi.db"))
	if storeErr != nil {
		fmt.Fprintf(os.Stderr, "local store unavailable, history disabled: %v\n", storeErr)
	}

	sessionStore := session.New(client, tokens)

	plannerOpts := []planner.Option{}
	var transcript chat.Transcript
	if store != nil {
		plannerOpts = append(plannerOpts, planner.WithJournal(store))
		transcript = store
	}
	plannerStore := planner.New(client, plannerOpts...)
	analyticsStore := analytics.New(client)
	chatSvc := chat.NewService(client, transcript, cfg.Chat)
	practiceSvc := practice.NewService(client)
	libraryStore := library.New(client)

	// 启动引导：有保存的令牌才联网恢复会话。
	// Bootstrap: only a saved token triggers the network round-trip.
	bootCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	sessionStore.LoadUserData(bootCtx)
	cancel()

	app := &replApp{
		cfg:       cfg,
		tokens:    tokens,
		session:   sessionStore,
		planner:   plannerStore,
		analytics: analyticsStore,
		chat:      chatSvc,
		practice:  practiceSvc,
		library:   libraryStore,
		store:     store,
		out:       os.Stdout,
	}
	defer app.close()

	inputReader, inputErr := newLineInput(filepath.Join(cfg.Storage.BaseDir, "repl.history"))
	if inputErr != nil {
		fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", inputErr)
	}
	defer inputReader.Close()
	app.in = inputReader

	fmt.Printf("sarathi — UPSC study companion (%s)\n", cfg.API.BaseURL)
	app.printSessionLine()
	printREPLCommands(os.Stdout)

	if startTUI {
		if err := app.runTUI(); err != nil {
			fmt.Fprintf(os.Stderr, "tui failed: %v\n", err)
		}
	}

	for {
		line, err := inputReader.ReadLine("sarathi> ")
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Fprintln(os.Stdout)
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(os.Stderr, "\nexit")
				return
			default:
				fmt.Fprintf(os.Stderr, "read input failed: %v\n", err)
				return
			}
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			handled, shouldExit := app.handleCommand(input)
			if handled {
				if shouldExit {
					return
				}
				continue
			}
			fmt.Printf("unknown command %s (try /help)\n", strings.Fields(input)[0])
			continue
		}

		// 非命令输入直接发给导师聊天。
		// Plain input goes straight to the mentor chat.
		app.sendChat(input)
	}
}

func (a *replApp) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func (a *replApp) printSessionLine() {
	if user := a.session.User(); user != nil {
		name := user.Name
		if profile := a.session.Profile(); profile != nil && profile.Name != "" {
			name = profile.Name
		}
		fmt.Fprintln(a.out, i18n.T("auth.login_ok", name))
	} else {
		fmt.Fprintln(a.out, i18n.T("status.anonymous"))
	}
}

func (a *replApp) sendChat(message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*requestTimeout)
	defer cancel()

	fmt.Fprintln(a.out, i18n.T("chat.thinking"))
	resp, err := a.chat.Send(ctx, message)
	if err != nil {
		fmt.Fprintln(a.out, i18n.T("chat.failed", err.Error()))
		return
	}
	fmt.Fprintln(a.out, renderReply(resp.Response))
}
