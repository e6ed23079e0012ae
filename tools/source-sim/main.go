// Command source-sim serves a fake connector endpoint that emits random
// coverage events, for exercising the pipeline locally.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

var eventTypes = []string{
	"playlist_add", "press_feature", "blog_post", "radio_spin",
	"social_mention", "streaming_milestone", "chart_entry", "review",
	"show_announcement", "scene_pulse_change",
}

var artists = []string{
	"velvet-anchor", "night-parade", "glass-harbor", "sour-peach",
	"the-low-tide", "moth-signal",
}

var scenes = []string{"east-london-jazz", "berlin-techno", "portland-diy"}

type rawEvent struct {
	EventType  string         `json:"event_type"`
	ArtistSlug string         `json:"artist_slug,omitempty"`
	EntitySlug string         `json:"entity_slug,omitempty"`
	SceneSlug  string         `json:"scene_slug,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}

func main() {
	addr := flag.String("addr", ":8090", "Listen address")
	batchMax := flag.Int("batch", 20, "Maximum events per response")
	flag.Parse()

	http.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		count := rand.Intn(*batchMax + 1)
		events := make([]rawEvent, 0, count)
		for i := 0; i < count; i++ {
			events = append(events, randomEvent())
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(events); err != nil {
			log.Printf("encode failed: %v", err)
		}
	})

	log.Printf("source-sim serving /events on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func randomEvent() rawEvent {
	eventType := eventTypes[rand.Intn(len(eventTypes))]
	event := rawEvent{
		EventType:  eventType,
		ArtistSlug: artists[rand.Intn(len(artists))],
		Metadata: map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"source":    "source-sim",
		},
	}

	switch eventType {
	case "playlist_add":
		event.EntitySlug = fmt.Sprintf("playlist-%d", rand.Intn(50))
		event.Metadata["followerCount"] = rand.Intn(2_000_000)
		event.Metadata["curatorInfluence"] = rand.Float64()
	case "press_feature":
		event.EntitySlug = fmt.Sprintf("publication-%d", rand.Intn(10))
		event.Metadata["publicationTier"] = []string{"tier1", "tier2", "tier3"}[rand.Intn(3)]
	case "radio_spin":
		event.EntitySlug = fmt.Sprintf("station-%d", rand.Intn(30))
		event.Metadata["stationType"] = []string{"national", "regional", "online", "college"}[rand.Intn(4)]
		event.Metadata["firstPlay"] = rand.Intn(10) == 0
	case "scene_pulse_change":
		event.ArtistSlug = ""
		event.SceneSlug = scenes[rand.Intn(len(scenes))]
		event.Metadata["oldPulse"] = 40 + rand.Float64()*20
		event.Metadata["newPulse"] = 40 + rand.Float64()*30
	}

	return event
}
