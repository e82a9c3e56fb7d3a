package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danij/Forum-sub001/internal/authz"
	"github.com/danij/Forum-sub001/internal/config"
	"github.com/danij/Forum-sub001/internal/endpoints"
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/eventlog"
	"github.com/danij/Forum-sub001/internal/forumlog"
	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
)

var (
	configPath string
	version    = "dev"
)

// Exit codes (§6.5): 0 clean shutdown, 1 runtime/config error, 2 a failed
// event-log import (the store is left empty rather than half-loaded).
const (
	exitOK          = 0
	exitRuntimeErr  = 1
	exitImportFail  = 2
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "forumd",
		Short:   "Serves the forum's HTTP API from an in-memory store backed by an event log",
		Version: version,
		RunE:    runServe,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to the JSON configuration file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRuntimeErr)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	snap, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("forumd: %w", err)
	}
	cfg := snap.Get()

	logger := forumlog.New(forumlog.Config{
		FilePath:   cfg.Persistence.OutputFolder + "/forumd.log",
		MaxSizeMB:  64,
		MaxBackups: 5,
		MaxAgeDays: 28,
		Compress:   true,
		Verbose:    true,
	})

	col := store.NewCollection()
	limits := cfg.Limits
	repos := &eventlog.Repositories{
		Users:      store.NewUserRepository(col, &limits),
		Threads:    store.NewThreadRepository(col, &limits),
		Messages:   store.NewMessageRepository(col, &limits),
		Comments:   store.NewCommentRepository(col, &limits),
		Tags:       store.NewTagRepository(col, &limits),
		Categories: store.NewCategoryRepository(col, &limits),
		Collection: col,
	}

	col.SetDefaultRequiredPrivileges(cfg.DefaultRequiredPrivileges)
	for _, grant := range cfg.DefaultPrivilegeGrants {
		col.DefaultPrivilegeGrants(idgen.AnonymousUserID, map[entities.Privilege]int{grant.Privilege: grant.Value}, idgen.Now())
	}

	importer := eventlog.NewImporter(eventlog.ImporterConfig{
		InputFolder:      cfg.Persistence.InputFolder,
		ValidateChecksum: cfg.Persistence.ValidateChecksum,
	}, repos, logger)
	result, err := importer.Import()
	if err != nil {
		logger.Errorf("import failed: %v", err)
		os.Exit(exitImportFail)
	}
	logger.Logf("imported %d records from %d of %d files", result.RecordsImported, result.FilesImported, result.FilesScanned)

	writer := eventlog.NewWriter(eventlog.WriterConfig{
		OutputFolder:                    cfg.Persistence.OutputFolder,
		CreateNewOutputFileEverySeconds: cfg.Persistence.CreateNewOutputFileEverySeconds,
		FsyncEverySeconds:               cfg.Persistence.FsyncEverySeconds,
	}, col, logger)
	if err := writer.Start(); err != nil {
		return fmt.Errorf("forumd: %w", err)
	}
	defer writer.Stop()
	col.AddObserver(writer)

	deps := &endpoints.Deps{
		Repos:                             repos,
		Throttle:                          authz.NewThrottler(cfg.Throttle),
		Sessions:                          endpoints.NewSessions(),
		Log:                               logger,
		DisableCommands:                   cfg.Service.DisableCommands,
		DisableCommandsForAnonymousUsers:  cfg.Service.DisableCommandsForAnonymousUsers,
	}
	deps.Throttle.Disabled = cfg.Service.DisableThrottling

	router := deps.NewRouter()
	server := httpserver.NewServer(cfg.HTTPServerConfig(), router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("forumd: server: %w", err)
		}
	case <-ctx.Done():
		logger.Logf("shutting down")
		server.Stop()
		<-errCh
	}
	return nil
}
