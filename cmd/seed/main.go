// File: cmd/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"skyline-store/internal/config"
	"skyline-store/internal/domain/model"
	pg "skyline-store/internal/infra/db/postgres"
)

// Seeds demo products, a starter license pool per (product, duration)
// and a demo coupon so a fresh environment can take a full checkout
// through fulfillment.

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	keysPer := flag.Int("keys", 20, "unused license keys to provision per product/duration")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	productRepo := pg.NewProductRepo(pool)
	licenseRepo := pg.NewLicenseRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)

	// If products already exist, do nothing
	existing, err := productRepo.ListActive(ctx, nil)
	if err != nil {
		log.Fatalf("list products: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d products already present. No changes.\n", len(existing))
		for _, p := range existing {
			fmt.Printf("  - %s (%s)\n", p.Name, p.Slug)
		}
		return
	}

	type priced struct {
		duration string
		cents    int64
	}
	seed := []struct {
		name   string
		slug   string
		prices []priced
	}{
		{"Skyline VPN", "skyline-vpn", []priced{{"7d", 2999}, {"30d", 7999}, {"lifetime", 19999}}},
		{"Skyline Proxy", "skyline-proxy", []priced{{"30d", 4999}, {"lifetime", 12999}}},
	}

	for _, s := range seed {
		p, err := model.NewProduct(s.name, s.slug)
		if err != nil {
			log.Fatalf("product %s: %v", s.slug, err)
		}
		if err := productRepo.Save(ctx, nil, p); err != nil {
			log.Fatalf("save product %s: %v", s.slug, err)
		}
		for _, pr := range s.prices {
			price := &model.ProductPrice{ProductID: p.ID, Duration: pr.duration, PriceCents: pr.cents}
			if err := productRepo.SavePrice(ctx, nil, price); err != nil {
				log.Fatalf("save price %s/%s: %v", s.slug, pr.duration, err)
			}
			for i := 0; i < *keysPer; i++ {
				key := fmt.Sprintf("%s-%s-%s", s.slug, pr.duration, model.NewUUID()[:8])
				lic, err := model.NewLicense(p.ID, pr.duration, key)
				if err != nil {
					log.Fatalf("license: %v", err)
				}
				if err := licenseRepo.Save(ctx, nil, lic); err != nil {
					log.Fatalf("save license: %v", err)
				}
			}
		}
		fmt.Printf("seeded %s with %d keys per duration\n", s.name, *keysPer)
	}

	maxUses := 50
	coupon, err := model.NewCoupon("SAVE10", model.DiscountTypePercentage, 10, &maxUses, nil)
	if err != nil {
		log.Fatalf("coupon: %v", err)
	}
	if err := couponRepo.Save(ctx, nil, coupon); err != nil {
		log.Fatalf("save coupon: %v", err)
	}
	fmt.Println("seeded coupon SAVE10 (10% off, 50 uses)")
}
