package store

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/compact"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
)

// Dataset is the full set of collections held by the store.
type Dataset struct {
	Apps    []models.App
	Vendors []models.Vendor
	Users   []models.User
	Stories []models.Story
}

func (d Dataset) clone() Dataset {
	out := Dataset{
		Apps:    make([]models.App, len(d.Apps)),
		Vendors: append([]models.Vendor(nil), d.Vendors...),
		Users:   append([]models.User(nil), d.Users...),
		Stories: append([]models.Story(nil), d.Stories...),
	}
	for i, a := range d.Apps {
		out.Apps[i] = a.Clone()
	}
	return out
}

// SeedData returns the bundled demo marketplace. Passwords are plaintext
// here and hashed when the store materialises them. Download history is
// laid out over the week before now so trending charts have data.
func SeedData(now time.Time) Dataset {
	joined := time.Date(2024, 11, 4, 9, 0, 0, 0, time.UTC)
	created := func(days int) time.Time { return now.UTC().AddDate(0, 0, -days).Truncate(time.Hour) }
	week := func(counts ...int64) []models.DownloadBucket {
		buckets := make([]models.DownloadBucket, 0, len(counts))
		for i, c := range counts {
			day := now.UTC().AddDate(0, 0, i-len(counts)+1)
			buckets = append(buckets, models.DownloadBucket{Date: day.Format(dayLayout), Count: compact.Count(c)})
		}
		return buckets
	}

	users := []models.User{
		{ID: "1", Name: "Market Admin", Email: "admin@indiemarket.dev", Password: "admin123", Role: models.RoleAdmin, Avatar: "https://i.pravatar.cc/150?u=admin"},
		{ID: "2", Name: "Lena Park", Email: "lena@pixelforge.dev", Password: "vendor123", Role: models.RoleVendor, Avatar: "https://i.pravatar.cc/150?u=lena"},
		{ID: "3", Name: "Omar Haddad", Email: "omar@nightowl.games", Password: "vendor123", Role: models.RoleVendor, Avatar: "https://i.pravatar.cc/150?u=omar"},
		{ID: "4", Name: "Ines Duarte", Email: "ines@calmtools.io", Password: "vendor123", Role: models.RoleVendor, Avatar: "https://i.pravatar.cc/150?u=ines"},
		{ID: "5", Name: "Sam Rivera", Email: "sam@example.com", Password: "customer123", Role: models.RoleCustomer, Avatar: "https://i.pravatar.cc/150?u=sam"},
	}

	vendors := []models.Vendor{
		{ID: "1", UserID: "2", BusinessName: "PixelForge Studio", Logo: "https://picsum.photos/seed/pixelforge/128", Bio: "Two-person studio making small, sharp productivity tools.", Website: "https://pixelforge.dev", Subscription: models.TierStandard, JoinedAt: joined},
		{ID: "2", UserID: "3", BusinessName: "Night Owl Games", Logo: "https://picsum.photos/seed/nightowl/128", Bio: "Late-night games for grown-ups.", Website: "https://nightowl.games", Subscription: models.TierPremium, JoinedAt: joined.AddDate(0, 1, 0)},
		{ID: "3", UserID: "4", BusinessName: "Calm Tools", Logo: "https://picsum.photos/seed/calmtools/128", Bio: "Quiet apps for focus and sleep.", Subscription: models.TierStandard, JoinedAt: joined.AddDate(0, 2, 0)},
	}

	apps := []models.App{
		{
			ID: "1", VendorID: "1", VendorName: "PixelForge Studio", Name: "TaskPilot",
			ShortDescription: "Keyboard-first task manager", Description: "Plan your day from the keyboard with nested lists, quick capture and calendar sync.",
			Category: "Productivity", Price: models.Free(), Status: models.StatusApproved,
			Tags: []string{"tasks", "planner", "keyboard"}, Icon: "https://picsum.photos/seed/taskpilot/256",
			Screenshots: []string{"https://picsum.photos/seed/taskpilot-1/640/1136"}, PackageURL: "https://downloads.indiemarket.dev/taskpilot-2.3.1.zip",
			Version: "2.3.1", Size: "18 MB", Rating: 4.7, ReviewCount: 1840,
			Metrics:         models.Metrics{Downloads: 1_200_000, ActiveUsers: 310_000, Likes: 48_000, Views: 2_400_000},
			DownloadHistory: week(120, 140, 160, 150, 180, 210, 230),
			VersionHistory: []models.VersionEntry{
				{Version: "2.3.1", Date: created(12), Notes: "Calendar sync fixes"},
				{Version: "2.3.0", Date: created(40), Notes: "Nested lists"},
			},
			CreatedAt: created(300), UpdatedAt: created(12),
		},
		{
			ID: "2", VendorID: "1", VendorName: "PixelForge Studio", Name: "Markdown Desk",
			ShortDescription: "Distraction-free markdown editor", Description: "A calm writing surface with live preview, focus mode and export to PDF.",
			Category: "productivity", Price: models.Price{Amount: 4.99}, Status: models.StatusApproved,
			Tags: []string{"writing", "markdown", "editor"}, Icon: "https://picsum.photos/seed/mddesk/256",
			Screenshots: []string{"https://picsum.photos/seed/mddesk-1/640/1136"}, PackageURL: "https://downloads.indiemarket.dev/markdown-desk-1.4.0.zip",
			Version: "1.4.0", Size: "24 MB", Rating: 4.5, ReviewCount: 620,
			Metrics:         models.Metrics{Downloads: 850_000, ActiveUsers: 120_000, Likes: 21_000, Views: 1_100_000, Revenue: 41_200},
			DownloadHistory: week(90, 80, 95, 100, 85, 70, 75),
			CreatedAt:       created(250), UpdatedAt: created(30),
		},
		{
			ID: "3", VendorID: "1", VendorName: "PixelForge Studio", Name: "Clip Stash",
			ShortDescription: "Clipboard history that stays out of the way", Description: "Searchable clipboard history with pinned snippets.",
			Category: "Utilities", Price: models.Free(), Status: models.StatusPending,
			Tags: []string{"clipboard", "snippets"}, Icon: "https://picsum.photos/seed/clipstash/256",
			Version: "0.9.0", Size: "6 MB",
			CreatedAt: created(2), UpdatedAt: created(2),
		},
		{
			ID: "4", VendorID: "2", VendorName: "Night Owl Games", Name: "Neon Drift",
			ShortDescription: "Synthwave arcade racer", Description: "Drift through endless neon highways. Beat your ghost, climb the boards.",
			Category: "Games", Price: models.Price{Amount: 2.99}, Status: models.StatusApproved,
			Tags: []string{"racing", "arcade", "synthwave"}, Icon: "https://picsum.photos/seed/neondrift/256",
			Screenshots: []string{"https://picsum.photos/seed/neondrift-1/1136/640", "https://picsum.photos/seed/neondrift-2/1136/640"},
			PackageURL: "https://downloads.indiemarket.dev/neon-drift-3.0.2.zip",
			Version:    "3.0.2", Size: "312 MB", Rating: 4.8, ReviewCount: 5210,
			Metrics:         models.Metrics{Downloads: 2_300_000, ActiveUsers: 640_000, Likes: 190_000, Views: 5_800_000, Revenue: 1_120_000},
			DownloadHistory: week(400, 420, 390, 450, 520, 610, 700),
			CreatedAt:       created(200), UpdatedAt: created(5),
		},
		{
			ID: "5", VendorID: "2", VendorName: "Night Owl Games", Name: "Midnight Casino",
			ShortDescription: "High-stakes card room", Description: "Poker and blackjack tables with a noir soundtrack. Play money only.",
			Category: "Games", Price: models.Free(), Status: models.StatusApproved, IsMature: true,
			Tags: []string{"cards", "poker", "casino"}, Icon: "https://picsum.photos/seed/midnight/256",
			PackageURL: "https://downloads.indiemarket.dev/midnight-casino-1.2.0.zip",
			Version:    "1.2.0", Size: "140 MB", Rating: 4.1, ReviewCount: 930,
			Metrics:         models.Metrics{Downloads: 410_000, ActiveUsers: 88_000, Likes: 12_000, Views: 900_000},
			DownloadHistory: week(60, 55, 70, 65, 80, 95, 90),
			CreatedAt:       created(150), UpdatedAt: created(20),
		},
		{
			ID: "6", VendorID: "2", VendorName: "Night Owl Games", Name: "Hollow Depths",
			ShortDescription: "Roguelike horror crawler", Description: "Descend into a procedurally generated crypt. Graphic violence.",
			Category: "Games", Price: models.Price{Amount: 6.99}, Status: models.StatusReview, IsMature: true,
			Tags: []string{"roguelike", "horror"}, Icon: "https://picsum.photos/seed/hollow/256",
			Version: "0.4.1", Size: "520 MB",
			CreatedAt: created(10), UpdatedAt: created(1),
		},
		{
			ID: "7", VendorID: "3", VendorName: "Calm Tools", Name: "Still",
			ShortDescription: "Breathing and sleep timer", Description: "Guided breathing, soundscapes and a gentle sleep timer.",
			Category: "Health", Price: models.Free(), Status: models.StatusApproved,
			Tags: []string{"sleep", "breathing", "meditation"}, Icon: "https://picsum.photos/seed/still/256",
			PackageURL: "https://downloads.indiemarket.dev/still-1.0.5.zip",
			Version:    "1.0.5", Size: "42 MB", Rating: 4.9, ReviewCount: 2100,
			Metrics:         models.Metrics{Downloads: 640_000, ActiveUsers: 210_000, Likes: 64_000, Views: 1_300_000},
			DownloadHistory: week(150, 170, 160, 200, 240, 260, 300),
			CreatedAt:       created(120), UpdatedAt: created(15),
		},
		{
			ID: "8", VendorID: "3", VendorName: "Calm Tools", Name: "Focus Fog",
			ShortDescription: "Ambient noise for deep work", Description: "Layer rain, cafe and brown noise. Rejected for trademarked audio.",
			Category: "Music", Price: models.Price{Amount: 1.99}, Status: models.StatusRejected,
			Tags: []string{"ambient", "focus"}, Icon: "https://picsum.photos/seed/focusfog/256",
			Version: "1.0.0", Size: "80 MB",
			CreatedAt: created(30), UpdatedAt: created(25),
		},
	}

	stories := []models.Story{
		{ID: "1", Title: "Drift Into the Night", Subtitle: "Game of the Day", Description: "Neon Drift is the arcade racer we keep coming back to.", Image: "https://picsum.photos/seed/story-neon/1200/600", AppID: "4", Type: models.StoryGameOfDay},
		{ID: "2", Title: "Get Things Done", Subtitle: "Editors' picks for work", Description: "Small tools that make a long day shorter.", Image: "https://picsum.photos/seed/story-work/1200/600", AppID: "1", Type: models.StoryCollection},
		{ID: "3", Title: "Sleep Better Tonight", Subtitle: "Featured", Description: "How Calm Tools built the gentlest sleep timer around.", Image: "https://picsum.photos/seed/story-sleep/1200/600", AppID: "7", Type: models.StoryFeatured},
	}

	return Dataset{Apps: apps, Vendors: vendors, Users: users, Stories: stories}
}
