package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/repository"
	"github.com/mansoorceksport/ironlog/internal/service"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Command line flags
	userID := flag.String("user", "", "User ID to recalculate progress for (required)")
	mongoURI := flag.String("mongo", "mongodb://localhost:27017/?replicaSet=rs0", "MongoDB connection URI")
	dbName := flag.String("db", "ironlog", "Database name")
	redisAddr := flag.String("redis", "", "Redis address; when set the cached stats and leaderboard scores are refreshed")
	dryRun := flag.Bool("dry-run", false, "Show the stored stats without making changes")
	flag.Parse()

	if *userID == "" {
		fmt.Println("Usage: recalculate_progress -user <USER_ID> [-mongo <URI>] [-db <NAME>] [-redis <ADDR>] [-dry-run]")
		fmt.Println("\nThis script rebuilds a user's workout counters and streak from their sessions and sets,")
		fmt.Println("awards any achievement the rebuilt counters reach, and re-evaluates the progress")
		fmt.Println("of every active challenge they joined.")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	store := repository.NewMongoStore(client, client.Database(*dbName))

	before, err := store.Stats.Get(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to load stats: %v", err)
	}
	fmt.Printf("🔍 Current stats for user: %s\n", *userID)
	printStats(before)

	if *dryRun {
		fmt.Println("\n⚠️  This was a dry run. No changes were made.")
		fmt.Println("   Run without -dry-run to apply changes.")
		return
	}

	evaluator := service.NewProgressEvaluator(store, nil)
	result, err := evaluator.RecalculateUser(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to recalculate: %v", err)
	}

	fmt.Println("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("✅ Recalculated stats:")
	printStats(result.Stats)
	for _, a := range result.Awarded {
		fmt.Printf("   🏆 Newly earned achievement: %s\n", a.Code)
	}
	if len(result.CompletedChallenges) > 0 {
		fmt.Printf("   🏁 Newly completed challenges: %v\n", result.CompletedChallenges)
	}

	if *redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer redisClient.Close()

		cache := repository.NewRedisCacheRepository(redisClient)
		if err := cache.InvalidateUser(ctx, *userID); err != nil {
			log.Printf("Failed to invalidate cached stats: %v", err)
		}
		if err := cache.SetLeaderboardScores(ctx, result.Stats); err != nil {
			log.Printf("Failed to update leaderboards: %v", err)
		} else {
			fmt.Println("   🔄 Cache and leaderboards refreshed")
		}
	}
}

func printStats(s *domain.UserStats) {
	fmt.Printf("   Workouts: %d, Sets: %d, Volume: %.0f kg\n", s.TotalWorkouts, s.TotalSets, s.TotalVolume)
	fmt.Printf("   Personal records: %d\n", s.PersonalRecordCount)
	fmt.Printf("   Streak: %d weeks (longest %d)\n", s.CurrentStreak, s.LongestStreak)
}
