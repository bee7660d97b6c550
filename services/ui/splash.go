package ui

// renderLogo draws the event splash: the configured bitmap if one was built
// in, a plain text banner otherwise.
func (s *Service) renderLogo(c *Canvas) {
	if len(s.cfg.Logo) > 0 {
		c.Blit(s.cfg.Logo)
		return
	}
	lh := c.LineHeight(FontLarge)
	c.TextCentered(FontLarge, c.H/2-2, "BSides")
	c.TextCentered(FontLarge, c.H/2-2+lh, "Tallinn")
}

// renderUsername centers the attendee name, wrapped and ellipsized to fit.
func (s *Service) renderUsername(c *Canvas) {
	lh := c.LineHeight(FontLarge)
	maxRows := int(c.H / lh)
	lines := c.WrapBlock(FontLarge, s.identity.Username, c.W, maxRows)

	total := int16(len(lines)) * lh
	y := (c.H-total)/2 + lh - 2
	for _, line := range lines {
		c.TextCentered(FontLarge, y, line)
		y += lh
	}
}
