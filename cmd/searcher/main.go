// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/archivist"
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	db, err := archivist.NewDatabase("./archive_db")
	if err != nil {
		panic(err)
	}
	defer db.Close()

	query := "lighthouse"
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}

	hits, err := db.SearchText(context.Background(), query, nil)
	if err != nil {
		panic(err)
	}

	fmt.Printf("query %q: %d hits\n", query, len(hits))
	for i, hit := range hits {
		title := " "
		if hit.TitleMatched {
			title = "T"
		}
		fmt.Printf("%d %s doc %d (%s) [%0.3f] %s\n",
			i+1, title, hit.DocumentId, hit.ChunkType, hit.CombinedScore, hit.Content)
		if hit.ContextContent != "" {
			fmt.Printf("    context: %s\n", hit.ContextContent)
		}
	}
}
