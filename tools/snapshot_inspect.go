// Command snapshot_inspect decodes a snapshot artifact and prints its
// contents as tables, one per entity kind. For sealed artifacts both keys
// must be supplied.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"chat-vault/domain"
	"chat-vault/snapshot"
	"chat-vault/store"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	path := flag.String("path", "snapshot.bin", "Path to the snapshot artifact")
	publicKey := flag.String("public-key", "", "Base64 public key (sealed artifacts)")
	privateKey := flag.String("private-key", "", "Base64 private key (sealed artifacts)")
	flag.Parse()

	encrypted := *publicKey != "" || *privateKey != ""
	var keys snapshot.KeyPair
	if encrypted {
		var err error
		if keys.Public, err = snapshot.ParseKey(*publicKey); err != nil {
			log.Fatal("Invalid public key: ", err)
		}
		if keys.Private, err = snapshot.ParseKey(*privateKey); err != nil {
			log.Fatal("Invalid private key: ", err)
		}
	}

	persister := snapshot.New(*path, encrypted, keys, slog.Default())
	view, err := persister.Load()
	if err != nil {
		log.Fatal("Error while reading artifact: ", err)
	}
	if view == nil {
		fmt.Println("No snapshot at", *path)
		return
	}

	color.Green.Printf("Snapshot %s: %d objects, %d usernames, %d auth codes\n",
		*path, len(view.Objects), len(view.Usernames), len(view.AuthCodes))

	printUsers(view)
	printChats(view)
	printMessages(view)
	printTokens(view)
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func printUsers(view *store.ViewData) {
	color.Cyan.Println("\nUsers")
	table := newTable([]string{"ID", "Username", "Admin", "Suspension", "Followers", "Banners"})
	forEach(view, domain.KindUser, func(id string, u *domain.User) {
		table.Append([]string{
			short(id), u.Username, strconv.FormatBool(u.IsAdmin),
			strconv.Itoa(u.SuspensionLevel), strconv.Itoa(len(u.Followers)), strconv.Itoa(len(u.Banners)),
		})
	})
	table.Render()
}

func printChats(view *store.ViewData) {
	color.Cyan.Println("\nChats")
	table := newTable([]string{"ID", "Name", "Creator", "Members", "Messages"})
	forEach(view, domain.KindChat, func(id string, c *domain.Chat) {
		table.Append([]string{
			short(id), c.Name, short(c.CreatorID),
			strconv.Itoa(len(c.Users)), strconv.Itoa(len(c.Messages)),
		})
	})
	table.Render()
}

func printMessages(view *store.ViewData) {
	color.Cyan.Println("\nMessages")
	table := newTable([]string{"ID", "Chat", "Author", "At", "Content"})
	forEach(view, domain.KindMessage, func(id string, m *domain.Message) {
		table.Append([]string{
			short(id), short(m.ChatID), short(m.AuthorID),
			m.Timestamp.Format(time.RFC3339), truncate(m.Content, 60),
		})
	})
	table.Render()
}

func printTokens(view *store.ViewData) {
	color.Cyan.Println("\nTokens")
	table := newTable([]string{"ID", "User", "Issued", "Expires"})
	forEach(view, domain.KindToken, func(id string, t *domain.Token) {
		table.Append([]string{
			short(id), short(t.UserID),
			t.IssuedAt.Format(time.RFC3339), t.ExpiresAt.Format(time.RFC3339),
		})
	})
	table.Render()
}

func forEach[T any](view *store.ViewData, kind domain.Kind, fn func(id string, v T)) {
	for _, obj := range view.Objects {
		if obj.Kind != kind {
			continue
		}
		var v T
		if err := json.Unmarshal(obj.Data, &v); err != nil {
			// Keep going: one bad row should not hide the rest.
			fmt.Printf("Error unmarshaling object %s: %v\n", short(obj.ID), err)
			continue
		}
		fn(obj.ID, v)
	}
}

func short(id string) string { return truncate(id, 12) }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
