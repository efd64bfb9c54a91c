// Package main submits an async solve and follows its trips over the plan
// websocket stream.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"dronefeed/internal/model"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	body, _ := json.Marshal(map[string]any{"scenario": demoScenario(), "async": true})
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/solve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t_demo")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("solve: unexpected status %s", resp.Status)
	}
	var accepted struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		log.Fatal(err)
	}
	log.Printf("Plan ID: %s", accepted.ID)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/plans/" + accepted.ID + "/stream"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m struct {
				Type string          `json:"type"`
				Data json.RawMessage `json:"data"`
			}
			if err := c.ReadJSON(&m); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("read: %v", err)
				}
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Data))
		}
	}()

	select {
	case <-time.After(30 * time.Second):
		log.Print("timed out waiting for the plan to finish")
	case <-done:
	}
}

// demoScenario scatters enclosures around a central depot.
func demoScenario() model.Scenario {
	rng := rand.New(rand.NewSource(7))
	diets := model.DietPriority
	sc := model.Scenario{
		Name:           "demo",
		Bounds:         model.Point3{X: 1000, Y: 1000, Z: 100},
		CruiseAltitude: 60,
		Depot:          model.Point3{X: 500, Y: 500},
		RangeBudget:    2200,
		MaxTrips:       20,
		Zones:          []model.ExclusionZone{{X: 300, Y: 700, Radius: 40}},
	}
	for i, d := range diets {
		sc.Sources = append(sc.Sources, model.SupplySource{Pos: model.Point3{X: 200 + 300*float64(i), Y: 300}, Diet: d})
	}
	for i := 0; i < 60; i++ {
		sc.Targets = append(sc.Targets, model.DeliveryTarget{
			Pos:        model.Point3{X: rng.Float64() * 1000, Y: rng.Float64() * 1000},
			Diet:       diets[rng.Intn(len(diets))],
			Importance: 1 + rng.Float64()*4,
		})
	}
	return sc
}
