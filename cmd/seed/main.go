package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/repository"
	"github.com/mansoorceksport/ironlog/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

var seedActor = domain.Actor{UserID: "seed", Roles: []string{domain.RoleAdmin}}

var exercises = []domain.Exercise{
	// Legs
	{Name: "Barbell Squat", MuscleGroup: "Legs", Equipment: "Barbell", Shape: domain.ShapeRepAndWeight},
	{Name: "Leg Press", MuscleGroup: "Legs", Equipment: "Machine", Shape: domain.ShapeRepAndWeight},
	{Name: "Romanian Deadlift", MuscleGroup: "Legs (Hamstrings)", Equipment: "Barbell", Shape: domain.ShapeRepAndWeight},
	{Name: "Walking Lunge", MuscleGroup: "Legs", Equipment: "Bodyweight", Shape: domain.ShapeRepBased},

	// Chest
	{Name: "Barbell Bench Press", MuscleGroup: "Chest", Equipment: "Barbell", Shape: domain.ShapeRepAndWeight},
	{Name: "Incline Dumbbell Press", MuscleGroup: "Chest", Equipment: "Dumbbell", Shape: domain.ShapeRepAndWeight},
	{Name: "Push-Up", MuscleGroup: "Chest", Equipment: "Bodyweight", Shape: domain.ShapeRepBased},

	// Back
	{Name: "Deadlift", MuscleGroup: "Back", Equipment: "Barbell", Shape: domain.ShapeRepAndWeight},
	{Name: "Pull-Up", MuscleGroup: "Back", Equipment: "Bodyweight", Shape: domain.ShapeRepBased},
	{Name: "Barbell Row", MuscleGroup: "Back", Equipment: "Barbell", Shape: domain.ShapeRepAndWeight},

	// Shoulders & Arms
	{Name: "Overhead Press", MuscleGroup: "Shoulders", Equipment: "Barbell", Shape: domain.ShapeRepAndWeight},
	{Name: "Dumbbell Curl", MuscleGroup: "Arms (Biceps)", Equipment: "Dumbbell", Shape: domain.ShapeRepAndWeight},

	// Core & Conditioning
	{Name: "Plank", MuscleGroup: "Core", Equipment: "Bodyweight", Shape: domain.ShapeTimed},
	{Name: "Treadmill Run", MuscleGroup: "Cardio", Equipment: "Machine", Shape: domain.ShapeTimed},
}

func main() {
	mongoURI := flag.String("mongo", "mongodb://localhost:27017/?replicaSet=rs0", "MongoDB connection URI (replica set required for transactions)")
	dbName := flag.String("db", "ironlog", "Database name")
	withChallenge := flag.Bool("challenge", true, "Also create a 30 day volume challenge starting today")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(context.Background())

	store := repository.NewMongoStore(client, client.Database(*dbName))
	catalog := service.NewCatalogService(store, nil)

	ids, err := seedExercises(ctx, store, catalog)
	if err != nil {
		log.Fatalf("Failed to seed exercises: %v", err)
	}
	fmt.Printf("✅ %d exercises in catalog\n", len(ids))

	if err := seedAchievements(ctx, catalog, ids); err != nil {
		log.Fatalf("Failed to seed achievements: %v", err)
	}

	day, err := catalog.CreatePlanDay(ctx, seedActor, &domain.PlanDay{
		PlanID: "starter-strength",
		Name:   "Full Body A",
		Exercises: []*domain.PlannedExercise{
			{ExerciseID: ids["Barbell Squat"], Order: 1, TargetSets: 3, TargetReps: intPtr(5), RestSeconds: 180},
			{ExerciseID: ids["Barbell Bench Press"], Order: 2, TargetSets: 3, TargetReps: intPtr(5), RestSeconds: 180},
			{ExerciseID: ids["Barbell Row"], Order: 3, TargetSets: 3, TargetReps: intPtr(8), RestSeconds: 120},
			{ExerciseID: ids["Plank"], Order: 4, TargetSets: 2, TargetTimeSeconds: intPtr(60), RestSeconds: 60},
		},
	})
	if err != nil {
		log.Fatalf("Failed to seed plan day: %v", err)
	}
	fmt.Printf("✅ Plan day %q created (%s)\n", day.Name, day.ID)

	if *withChallenge {
		start := time.Now().UTC().Truncate(24 * time.Hour)
		challenge, err := catalog.CreateChallenge(ctx, seedActor, &domain.Challenge{
			Name:        "Move 50 Tonnes",
			Description: "Lift a total of 50,000 kg in 30 days",
			MetricType:  domain.MetricTotalVolume,
			TargetValue: 50000,
			StartDate:   start,
			EndDate:     start.Add(30 * 24 * time.Hour),
		})
		if err != nil {
			log.Fatalf("Failed to seed challenge: %v", err)
		}
		fmt.Printf("✅ Challenge %q created (%s)\n", challenge.Name, challenge.ID)
	}

	fmt.Println("Seeding completed!")
}

// seedExercises creates every missing exercise and returns the name -> id map
// of the whole catalog.
func seedExercises(ctx context.Context, store *domain.Store, catalog *service.CatalogService) (map[string]string, error) {
	existing, err := store.Exercises.List(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	ids := make(map[string]string, len(existing)+len(exercises))
	for _, ex := range existing {
		ids[ex.Name] = ex.ID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range exercises {
		ex := exercises[i]
		if _, ok := ids[ex.Name]; ok {
			fmt.Printf("⏭️  Skipping %s (exists)\n", ex.Name)
			continue
		}
		g.Go(func() error {
			created, err := catalog.CreateExercise(gctx, seedActor, &ex)
			if err != nil {
				return fmt.Errorf("%s: %w", ex.Name, err)
			}
			mu.Lock()
			ids[created.Name] = created.ID
			mu.Unlock()
			fmt.Printf("➕ Created %s\n", created.Name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

func seedAchievements(ctx context.Context, catalog *service.CatalogService, ids map[string]string) error {
	achievements := []domain.Achievement{
		{Code: "FIRST_WORKOUT", Name: "First Step", Description: "Complete your first workout", Category: domain.CategoryTotalWorkouts, Threshold: 1},
		{Code: "WORKOUTS_10", Name: "Regular", Description: "Complete 10 workouts", Category: domain.CategoryTotalWorkouts, Threshold: 10},
		{Code: "WORKOUTS_100", Name: "Centurion", Description: "Complete 100 workouts", Category: domain.CategoryTotalWorkouts, Threshold: 100, Rarity: domain.RarityEpic},
		{Code: "STREAK_4", Name: "Habit Formed", Description: "Train 4 weeks in a row", Category: domain.CategoryStreak, Threshold: 4, Rarity: domain.RarityRare},
		{Code: "STREAK_12", Name: "Unbreakable", Description: "Train 12 weeks in a row", Category: domain.CategoryStreak, Threshold: 12, Rarity: domain.RarityLegendary},
		{Code: "FIRST_PR", Name: "New Best", Description: "Set your first personal record", Category: domain.CategoryPersonalRecord, Threshold: 1},
		{Code: "VOLUME_10K", Name: "Ten Tonnes", Description: "Lift 10,000 kg in total", Category: domain.CategoryVolume, Threshold: 10000},
		{Code: "VOLUME_100K", Name: "Heavy Hauler", Description: "Lift 100,000 kg in total", Category: domain.CategoryVolume, Threshold: 100000, Rarity: domain.RarityEpic},
		{Code: "BENCH_100", Name: "Triple Digits", Description: "Bench press 100 kg", Category: domain.CategoryExerciseSpecific, ExerciseID: ids["Barbell Bench Press"], RecordType: domain.RecordMaxWeight, Threshold: 100, Rarity: domain.RarityRare},
		{Code: "PLANK_300", Name: "Iron Core", Description: "Hold a plank for 5 minutes", Category: domain.CategoryExerciseSpecific, ExerciseID: ids["Plank"], RecordType: domain.RecordMaxTime, Threshold: 300, IsHidden: true, Rarity: domain.RarityEpic},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range achievements {
		a := achievements[i]
		g.Go(func() error {
			_, err := catalog.CreateAchievement(gctx, seedActor, &a)
			switch {
			case errors.Is(err, domain.ErrConflict):
				fmt.Printf("⏭️  Skipping achievement %s (exists)\n", a.Code)
				return nil
			case err != nil:
				return fmt.Errorf("%s: %w", a.Code, err)
			}
			fmt.Printf("🏆 Created achievement %s\n", a.Code)
			return nil
		})
	}
	return g.Wait()
}

func intPtr(v int) *int { return &v }
