package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"
)

const usage = `usage:
  cli readings
  cli outdoor
  cli location <lat> <lon>
  cli test-alert`

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	api = strings.TrimRight(api, "/")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var (
		resp *http.Response
		err  error
	)
	switch os.Args[1] {
	case "readings":
		resp, err = client.Get(api + "/readings")
	case "outdoor":
		resp, err = client.Get(api + "/outdoor")
	case "test-alert":
		resp, err = client.Get(api + "/testAlert")
	case "location":
		if len(os.Args) != 4 {
			fmt.Println(usage)
			os.Exit(2)
		}
		resp, err = client.PostForm(api+"/setLocation", url.Values{"lat": {os.Args[2]}, "lon": {os.Args[3]}})
	default:
		fmt.Println(usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Println("API returned status:", resp.Status)
		fmt.Print(string(body))
		os.Exit(1)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var v map[string]any
		if json.Unmarshal(body, &v) == nil {
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Printf("%-14s %v\n", k, v[k])
			}
			return
		}
	}
	fmt.Print(string(body))
}
