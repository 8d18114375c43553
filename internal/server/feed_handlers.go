package server

import (
	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Index renders the global feed. The rendered page is cached per viewer and query
// string for cache.IndexPageTTL; new or deleted posts show up once the entry expires.
func (s *Server) Index(c *fiber.Ctx) error {
	ctx := c.UserContext()
	key := cache.PageKey(cache.IndexPage, middleware.ViewerID(c), string(c.Request().URI().QueryString()))

	body, ok, err := s.pages.Get(ctx, key)
	switch {
	case err != nil:
		observability.PageCacheLookups.WithLabelValues(cache.IndexPage, "error").Inc()
		middleware.Logger.WarnContext(ctx, "page cache read failed", "key", key, "error", err)
	case ok:
		observability.PageCacheLookups.WithLabelValues(cache.IndexPage, "hit").Inc()
		return sendHTML(c, fiber.StatusOK, body)
	default:
		observability.PageCacheLookups.WithLabelValues(cache.IndexPage, "miss").Inc()
	}

	page, err := s.feedService.Index(ctx, c.Query("page"))
	if err != nil {
		return err
	}
	body, err = s.renderPage(c, "posts/index", fiber.Map{
		"Title": "Latest posts",
		"Page":  page,
	})
	if err != nil {
		return err
	}
	if err := s.pages.Set(ctx, key, body, cache.IndexPageTTL); err != nil {
		middleware.Logger.WarnContext(ctx, "page cache write failed", "key", key, "error", err)
	}
	return sendHTML(c, fiber.StatusOK, body)
}

func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.feedService.Group(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/group_list", fiber.Map{
		"Title": group.String(),
		"Group": group,
		"Page":  page,
	})
}

func (s *Server) Profile(c *fiber.Ctx) error {
	profile, err := s.feedService.Profile(c.UserContext(), c.Params("username"), middleware.ViewerID(c), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/profile", fiber.Map{
		"Title":   "Profile of " + profile.Author.FullName(),
		"Profile": profile,
	})
}

// FollowIndex renders posts by the authors the viewer follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.feedService.Followed(c.UserContext(), middleware.ViewerID(c), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/follow", fiber.Map{
		"Title": "Following",
		"Page":  page,
	})
}

func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	author, err := s.followService.Follow(c.UserContext(), middleware.ViewerID(c), c.Params("username"))
	if err != nil {
		return err
	}
	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}

// ProfileUnfollow removes the follow edge; a missing edge is a 404.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	author, err := s.followService.Unfollow(c.UserContext(), middleware.ViewerID(c), c.Params("username"))
	if err != nil {
		return err
	}
	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}

func (s *Server) AboutAuthor(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "about/author", fiber.Map{"Title": "About the author"})
}

func (s *Server) AboutTech(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "about/tech", fiber.Map{"Title": "Technologies"})
}
