// keyupdate resolves provider keys for a list of city names via the city
// search endpoint and rewrites the location key file. Run it once before
// first ingestion or whenever the tracked city list changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"weathertrack/internal/locations"
	"weathertrack/internal/provider/accuweather"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	var (
		cities  = flag.String("cities", "", "comma-separated city names to resolve")
		keyFile = flag.String("key-file", getenvDefault("LOCATION_KEY_FILE", "location_keys.json"), "key file to update")
		baseURL = flag.String("base-url", getenvDefault("ACCUWEATHER_BASE_URL", accuweather.DefaultBaseURL), "provider base url")
		merge   = flag.Bool("merge", true, "keep keys for cities not named in -cities")
	)
	flag.Parse()

	apiKey := getenvDefault("ACCUWEATHER_API_KEY", os.Getenv("API_KEY"))
	if apiKey == "" {
		log.Fatal("ACCUWEATHER_API_KEY is required")
	}
	names := splitCSV(*cities)
	if len(names) == 0 {
		log.Fatal("-cities is required, e.g. -cities Dwarka,Najafgarh,Nawada,Bahadurgarh")
	}

	store, err := locations.NewKeyStore(*keyFile)
	if err != nil {
		log.Fatalf("key store error: %v", err)
	}
	keys := map[string]string{}
	if *merge {
		keys, err = store.Load()
		if err != nil {
			log.Fatalf("key load error: %v", err)
		}
	}

	client, err := accuweather.NewClient(*baseURL, apiKey, nil, log.Default())
	if err != nil {
		log.Fatalf("provider client error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var failed int
	for _, name := range names {
		providerKey, err := client.SearchLocationKey(ctx, name)
		if err != nil {
			log.Printf("key lookup failed for %s: %v", name, err)
			failed++
			continue
		}
		keys[name] = providerKey
		fmt.Printf("%s -> %s\n", name, providerKey)
	}
	if failed == len(names) {
		log.Fatal("no keys resolved; key file left unchanged")
	}

	if err := store.Store(keys); err != nil {
		log.Fatalf("key store write error: %v", err)
	}
	fmt.Printf("wrote %d keys to %s\n", len(keys), *keyFile)
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
