package mischief_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/mischief"
)

// Example_basic demonstrates how to open a store, write a note and share it.
func Example_basic() {
	// Create a temporary directory for the example
	tmpDir, err := os.MkdirTemp("", "mischief-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	svc, err := mischief.New(tmpDir)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// 1. Authenticate with a bootstrap credential
	harry, err := svc.Authenticate(ctx, "harry_secret_key_123")
	if err != nil {
		log.Fatal(err)
	}

	// 2. Create and share a note
	note, err := svc.CreateNote(ctx, harry, "Map", "I solemnly swear that I am up to no good.")
	if err != nil {
		log.Fatal(err)
	}
	if err := svc.ShareNote(ctx, harry, note.ID, "Hermione"); err != nil {
		log.Fatal(err)
	}

	// 3. Read it as the recipient
	read, err := svc.ReadNote(ctx, "Hermione", note.ID)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(read.Title, "-", read.Content)
	// Output:
	// Map - I solemnly swear that I am up to no good.
}
