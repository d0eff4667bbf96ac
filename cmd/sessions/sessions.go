// Package sessions provides operator tooling over the redis session
// snapshot mirror.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/karlivory/SiGa/internal/config"
	"github.com/karlivory/SiGa/internal/gateway/session"
	"github.com/karlivory/SiGa/internal/util/command"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const snapshotKeyPrefix = "siga:session:"

func New() *cobra.Command {
	return command.NewSubcommandGroup("sessions",
		newListCmd(),
		newShowCmd(),
	)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live session snapshot keys",
		Run: func(cmd *cobra.Command, args []string) {
			client, ctx, cancel := mustConnect()
			defer cancel()

			iter := client.Scan(ctx, 0, snapshotKeyPrefix+"*", 0).Iterator()
			count := 0
			for iter.Next(ctx) {
				fmt.Println(iter.Val()[len(snapshotKeyPrefix):])
				count++
			}
			if err := iter.Err(); err != nil {
				log.Fatal().Err(err).Msg("Failed to scan session snapshots")
			}
			fmt.Printf("%d session(s)\n", count)
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print one session snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client, ctx, cancel := mustConnect()
			defer cancel()

			key := snapshotKeyPrefix + args[0]
			data, err := client.Get(ctx, key).Bytes()
			if err == redis.Nil {
				log.Fatal().Str("session_id", args[0]).Msg("No snapshot for session")
			}
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read session snapshot")
			}

			if secret := config.DefaultServiceConfigFromEnv().Gateway.SnapshotSecret; secret != "" {
				sealer, err := session.NewSealer([]byte(secret))
				if err != nil {
					log.Fatal().Err(err).Msg("Failed to create snapshot sealer")
				}
				data, err = sealer.Open(data, []byte(key))
				if err != nil {
					log.Fatal().Err(err).Msg("Failed to decrypt session snapshot")
				}
			}

			var pretty map[string]interface{}
			if err := json.Unmarshal(data, &pretty); err != nil {
				log.Fatal().Err(err).Msg("Snapshot is not valid JSON")
			}
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
		},
	}
}

func mustConnect() (*redis.Client, context.Context, context.CancelFunc) {
	cfg := config.DefaultServiceConfigFromEnv()
	if cfg.Gateway.RedisEndpoint == "" {
		log.Fatal().Msg("SIGA_GATEWAY_REDIS_ENDPOINT is not configured")
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Gateway.RedisEndpoint})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	if err := client.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to ping redis")
	}
	return client, ctx, cancel
}
