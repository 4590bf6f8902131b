//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type VoxelJobEvent struct {
	JobID      uuid.UUID       `json:"job_id"`
	Dataset    string          `json:"dataset"`
	Categories []string        `json:"categories,omitempty"`
	Options    json.RawMessage `json:"options,omitempty"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	dataset := flag.String("dataset", "tokyo", "Dataset name")
	categories := flag.String("categories", "", "Comma separated categories")
	voxelSize := flag.Float64("voxel-size", 0, "Voxel size in meters (0 = auto)")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	options := map[string]interface{}{"auto_voxel_size": *voxelSize == 0}
	if *voxelSize > 0 {
		options["voxel_size"] = *voxelSize
	}
	rawOptions, err := json.Marshal(options)
	if err != nil {
		log.Fatalf("Failed to marshal options: %v", err)
	}

	event := VoxelJobEvent{
		JobID:   uuid.New(),
		Dataset: *dataset,
		Options: rawOptions,
	}
	if *categories != "" {
		event.Categories = strings.Split(*categories, ",")
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Публикация в стрим
	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:voxel:jobs",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: stream:voxel:jobs\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Job ID: %s\n", event.JobID)
	fmt.Printf("   Dataset: %s\n", event.Dataset)

	fmt.Printf("\nWaiting for response in stream:voxel:done...\n")

	timeout := time.After(60 * time.Second)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			fmt.Println("Timeout waiting for response")
			return
		case <-ticker.C:
			results, err := client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{"stream:voxel:done", "0"},
				Count:   100,
				Block:   -1,
			}).Result()
			if err != nil {
				continue
			}

			for _, stream := range results {
				for _, msg := range stream.Messages {
					dataStr, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}

					var response map[string]interface{}
					if err := json.Unmarshal([]byte(dataStr), &response); err != nil {
						continue
					}

					if jobID, ok := response["job_id"].(string); ok && jobID == event.JobID.String() {
						fmt.Printf("\nResponse received:\n")
						prettyJSON, _ := json.MarshalIndent(response, "", "  ")
						fmt.Printf("%s\n", prettyJSON)
						fmt.Printf("\nFull result: GET /api/v1/jobs/%s\n", event.JobID)
						return
					}
				}
			}
		}
	}
}
