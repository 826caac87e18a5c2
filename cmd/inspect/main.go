// Command inspect dumps the contents of a Badger database as tables.
// It opens the store read-only so it can run next to a live server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "badger", "Path to badger DB")
	prefix := flag.String("prefix", "", "Only dump keys with this prefix (user:, channel:, msg:)")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Name/Text", "Timestamp"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Locator keys only point at a primary key, skip them.
			if strings.HasPrefix(key, "mid:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(rowFor(key, v))
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(
		fmt.Sprintf(" %d records in %s ", rows, *dbPath)))
	table.Render()
}

func rowFor(key string, val []byte) []string {
	var record map[string]any
	if err := json.Unmarshal(val, &record); err != nil {
		return []string{key, "RAW", fmt.Sprintf("%d bytes", len(val)), ""}
	}

	switch {
	case strings.HasPrefix(key, "user:"):
		return []string{key, "USER", str(record, "name"), unixNano(record, "last_seen")}
	case strings.HasPrefix(key, "channel:"):
		return []string{key, "CHANNEL", str(record, "name"), ""}
	case strings.HasPrefix(key, "msg:"):
		return []string{key, "MESSAGE", truncate(str(record, "text"), 60), unixNano(record, "at")}
	default:
		return []string{key, "JSON", truncate(string(val), 60), ""}
	}
}

func str(record map[string]any, field string) string {
	s, _ := record[field].(string)
	return s
}

func unixNano(record map[string]any, field string) string {
	f, ok := record[field].(float64)
	if !ok {
		return ""
	}
	return time.Unix(0, int64(f)).UTC().Format("2006-01-02 15:04:05")
}

// truncate cuts on rune boundaries so multibyte text (emoji reactions,
// names) never renders as broken UTF-8.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "…"
	}
	return s
}
