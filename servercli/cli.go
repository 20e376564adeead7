package servercli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hdt3213/solodis/config"
	"github.com/hdt3213/solodis/database"
	GnetServer "github.com/hdt3213/solodis/gnet"
	"github.com/hdt3213/solodis/lib/logger"
	"github.com/hdt3213/solodis/tcp"
)

var banner = `
               __          ___
   _________  / /___  ____/ (_)____
  / ___/ __ \/ / __ \/ __  / / ___/
 (__  ) /_/ / / /_/ / /_/ / (__  )
/____/\____/_/\____/\__,_/_/____/
`

var configFile string

var rootCmd = &cobra.Command{
	Use:   "solodis [port]",
	Short: "solodis is a single-threaded, event-driven implementation of a Redis server in golang.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			config.Setup(configFile)
		} else if fileExists(os.Getenv("CONFIG")) {
			config.Setup(os.Getenv("CONFIG"))
		}
		if len(args) == 1 {
			port, err := strconv.Atoi(args[0])
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("invalid port %q", args[0])
			}
			config.Properties.Port = port
		}
		return StartServer()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a config file")
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

// StartServer builds the engine and serves on the configured transport
func StartServer() error {
	print(banner)
	logger.Setup(&logger.Settings{
		Path:       "logs",
		Name:       "solodis",
		Ext:        "log",
		TimeFormat: "2006-01-02",
	})
	addr := fmt.Sprintf("%s:%d", config.Properties.Bind, config.Properties.Port)
	engine := database.NewStandaloneServer()
	if config.Properties.Gnet {
		server := GnetServer.NewGnetServer(engine,
			time.Duration(config.Properties.TickInterval)*time.Millisecond)
		return server.Run("tcp://" + addr)
	}
	return tcp.ListenAndServeWithSignal(&tcp.Config{Address: addr}, engine)
}

// Execute runs the command line interface
func Execute() error {
	return rootCmd.Execute()
}
