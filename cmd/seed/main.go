package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shinyyama/bookswap-backend/internal/config"
	"github.com/shinyyama/bookswap-backend/internal/db"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"gorm.io/gorm"
)

type seedBook struct {
	Title  string
	Author string
	Price  int64
}

const seedDeposit = 500

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	force := strings.EqualFold(os.Getenv("FORCE_SEED"), "true")
	canSeed, err := shouldSeed(ctx, gdb, force)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("books already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	sellers := uidList("SEED_SELLER_UIDS", "seller-demo")
	buyers := uidList("SEED_BUYER_UIDS", "buyer-demo")
	books := buildSeedBooks()

	bookRepo := repository.NewBookRepository(gdb)
	walletRepo := repository.NewUserWalletRepository(gdb)
	if force {
		if err := gdb.WithContext(ctx).Where("available = ?", true).Delete(&model.Book{}).Error; err != nil {
			return fmt.Errorf("clear books: %w", err)
		}
	}
	err = repository.NewTransactor(gdb).InTx(ctx, func(ctx context.Context) error {
		for idx, b := range books {
			book := &model.Book{
				ID:        uuid.NewString(),
				SellerUID: sellers[idx%len(sellers)],
				Title:     b.Title,
				Author:    b.Author,
				Price:     b.Price,
				Available: true,
			}
			if err := bookRepo.Create(ctx, book); err != nil {
				return fmt.Errorf("insert book %q: %w", b.Title, err)
			}
		}
		for _, uid := range buyers {
			if err := walletRepo.AddDeposit(ctx, uid, seedDeposit); err != nil {
				return fmt.Errorf("deposit for %s: %w", uid, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("seeded %d books for %d sellers, deposits for %d buyers", len(books), len(sellers), len(buyers))
	return nil
}

func buildSeedBooks() []seedBook {
	return []seedBook{
		{Title: "The Go Programming Language", Author: "Alan Donovan, Brian Kernighan", Price: 420},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Price: 560},
		{Title: "Structure and Interpretation of Computer Programs", Author: "Harold Abelson, Gerald Sussman", Price: 380},
		{Title: "Introduction to Algorithms", Author: "Thomas Cormen et al.", Price: 650},
		{Title: "Operating Systems: Three Easy Pieces", Author: "Remzi Arpaci-Dusseau", Price: 300},
		{Title: "Linear Algebra Done Right", Author: "Sheldon Axler", Price: 340},
		{Title: "Calculus", Author: "Michael Spivak", Price: 460},
		{Title: "Principles of Economics", Author: "N. Gregory Mankiw", Price: 290},
		{Title: "Organic Chemistry", Author: "Paula Bruice", Price: 520},
		{Title: "Dune", Author: "Frank Herbert", Price: 120},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Price: 110},
		{Title: "Norwegian Wood", Author: "Haruki Murakami", Price: 100},
	}
}

func uidList(key, fallback string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		raw = fallback
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []string{fallback}
	}
	return out
}

func shouldSeed(ctx context.Context, gdb *gorm.DB, force bool) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Book{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count books: %w", err)
	}
	return cnt == 0 || force, nil
}
