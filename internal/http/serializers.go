package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"ideabank/internal/comments"
	"ideabank/internal/ideas"
	"ideabank/internal/users"
	"ideabank/internal/visits"
)

const timestampLayout = "2006-01-02 15:04"

func serializeUser(u users.User) fiber.Map {
	return fiber.Map{
		"id":              u.ID,
		"username":        u.Username,
		"full_name":       u.FullName,
		"profile_picture": u.ProfilePicture,
	}
}

func serializeIdea(i ideas.Idea) fiber.Map {
	return fiber.Map{
		"id":          i.ID,
		"title":       i.Title,
		"description": i.Description,
		"category":    i.Category,
		"views":       i.Views,
		"user":        serializeUser(i.User),
		"created_at":  i.CreatedAt.UTC().Format(timestampLayout),
	}
}

func serializeIdeas(items []ideas.Idea) []fiber.Map {
	out := make([]fiber.Map, len(items))
	for n, i := range items {
		out[n] = serializeIdea(i)
	}
	return out
}

func serializeComment(c comments.Comment) fiber.Map {
	m := fiber.Map{
		"id":           c.ID,
		"content":      c.Content,
		"is_published": c.IsPublished,
		"user":         serializeUser(c.User),
		"created_at":   c.CreatedAt.UTC().Format(timestampLayout),
	}
	if c.UpdatedAt.Valid {
		m["updated_at"] = c.UpdatedAt.Time.UTC().Format(timestampLayout)
	}
	return m
}

func serializeComments(items []comments.Comment) []fiber.Map {
	out := make([]fiber.Map, len(items))
	for n, c := range items {
		out[n] = serializeComment(c)
	}
	return out
}

func serializeVisit(v visits.Visit) fiber.Map {
	m := fiber.Map{
		"id":          v.ID,
		"ip_address":  v.IPAddress,
		"browser":     v.Browser,
		"device_type": v.DeviceType,
		"page_path":   v.PagePath,
		"referrer":    v.Referrer,
		"country":     v.Country,
		"created_at":  v.CreatedAt.UTC().Format(time.RFC3339),
	}
	if v.UserID != nil {
		m["user_id"] = *v.UserID
	}
	return m
}

func serializeVisits(items []visits.Visit) []fiber.Map {
	out := make([]fiber.Map, len(items))
	for n, v := range items {
		out[n] = serializeVisit(v)
	}
	return out
}
