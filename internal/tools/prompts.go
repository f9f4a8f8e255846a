package tools

import (
	"fmt"
	"strings"
)

func blogPrompt(req BlogRequest) string {
	return fmt.Sprintf(`Write a comprehensive blog post with the following requirements:

Title: %s
Topic: %s
Tone: %s
Length: %s

Please write a well-structured blog post with an engaging introduction, clear sections, and a compelling conclusion. Make it informative and valuable for readers.`,
		req.Title, req.Topic, orDefault(req.Tone, "professional"), orDefault(req.Length, "medium"))
}

func youtubePrompt(req YouTubeRequest) string {
	return fmt.Sprintf(`Write a YouTube video script with the following requirements:

Topic: %s
Duration: %s
Style: %s
Include Intro: %t
Include Outro: %t

Please create a complete script with:
- Hook/Introduction (if requested)
- Main content sections with clear talking points
- Transitions between sections
- Call-to-action and outro (if requested)
- Timestamps for key sections

Make it engaging, natural, and optimized for YouTube viewers.`,
		req.Topic,
		orDefault(req.Duration, "10 minutes"),
		orDefault(req.Style, "engaging and conversational"),
		boolOr(req.IncludeIntro, true),
		boolOr(req.IncludeOutro, true))
}

func seoPrompt(req SEORequest) string {
	return fmt.Sprintf(`Create an SEO-optimized content strategy and outline for the following:

Primary Keyword: %s
Target Audience: %s
Content Type: %s
Competitors: %s

Please provide:
1. SEO-optimized title suggestions (3-5 options)
2. Meta description (2-3 options)
3. H1, H2, H3 heading structure
4. Target keyword density and placement recommendations
5. Related keywords and LSI terms
6. Content outline with SEO best practices
7. Internal linking suggestions
8. Call-to-action recommendations

Make it comprehensive and actionable for SEO success.`,
		req.Keyword,
		orDefault(req.TargetAudience, "general audience"),
		orDefault(req.ContentType, "blog post"),
		orDefault(req.Competitors, "none specified"))
}

func rewriterPrompt(req RewriterRequest) string {
	return fmt.Sprintf(`Rewrite the following content with these requirements:

Original Content:
%s

Tone: %s
Style: %s
Purpose: %s

Please rewrite the content to:
- Improve clarity and readability
- Maintain the core message and meaning
- Enhance engagement and flow
- Apply the requested tone and style
- Optimize for the specified purpose

Provide only the rewritten content without additional commentary.`,
		req.Content,
		orDefault(req.Tone, "maintain original tone"),
		orDefault(req.Style, "professional"),
		orDefault(req.Purpose, "improve clarity and engagement"))
}

func instagramPrompt(req InstagramRequest) string {
	return fmt.Sprintf(`Create an on-brand Instagram %s for the following campaign.

Campaign focus: %s
Offer/product details: %s
Tone: %s
Hashtags to include: %s

Please provide:
1. A hook/opening line that grabs attention.
2. A concise body copy with emojis where appropriate.
3. A call-to-action that drives engagement or conversions.
4. Suggested hashtags (list form).
5. If relevant, suggest carousel slide ideas or short reel script cues.

Make it optimized for Instagram best practices and keep it authentic.`,
		orDefault(req.PostType, "caption"),
		req.Campaign,
		req.Offer,
		orDefault(req.Tone, "friendly and engaging"),
		orDefault(req.Hashtags, "3-5 relevant hashtags"))
}

func briefPrompt(req BriefRequest) string {
	return fmt.Sprintf(`Create a comprehensive content brief for the following topic:

Topic: %s
Target Audience: %s
Content Goals: %s
Format: %s
Tone: %s

Please provide:
1. Executive Summary
2. Target Audience Analysis
3. Key Messages & Talking Points
4. Content Outline/Structure
5. SEO Keywords & Phrases
6. Research Sources & References
7. Call-to-Action Suggestions
8. Success Metrics
9. Timeline & Milestones
10. Content Requirements & Guidelines

Make it detailed, actionable, and ready for content creation.`,
		req.Topic,
		orDefault(req.TargetAudience, "general audience"),
		orDefault(req.Goals, "inform and engage"),
		orDefault(req.Format, "blog post"),
		orDefault(req.Tone, "professional"))
}

func grammarPrompt(content string) string {
	return `Please check the following text for grammar, spelling, punctuation, and style issues.

Text to check:
` + content + `

Please provide:
1. A corrected version of the text
2. A list of issues found with:
   - Type (grammar, spelling, punctuation, style)
   - Message describing the issue
   - Suggested correction
   - Severity (error, warning, info)
   - Position (start and end character indices)

Format the response as JSON:
{
  "correctedContent": "...",
  "issues": [
    {
      "type": "grammar|spelling|punctuation|style",
      "message": "...",
      "suggestion": "...",
      "position": { "start": 0, "end": 10 },
      "severity": "error|warning|info"
    }
  ]
}`
}

func hashtagsPrompt(req HashtagsRequest) string {
	platform := orDefault(req.Platform, "social media")
	return fmt.Sprintf(`Generate relevant hashtags for %s based on this topic: "%s"

Requirements:
- Generate 15-30 relevant hashtags
- Mix of popular and niche hashtags
- Platform-appropriate (%s)
- Include trending and evergreen hashtags
- Format: one hashtag per line, starting with #
- No explanations, just hashtags`, platform, req.Topic, platform)
}

func translatePrompt(content, source, target string, opts TranslationOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following content from %s to %s.\n\n", languageName(source), languageName(target))
	if opts.PreserveTone {
		b.WriteString("IMPORTANT: Preserve the original tone and style of the content.\n")
	}
	if opts.PreserveFormatting {
		b.WriteString("IMPORTANT: Preserve all formatting, including line breaks, lists, and structure.\n")
	}
	if opts.TargetAudience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", opts.TargetAudience)
	}
	if opts.Domain != "" {
		fmt.Fprintf(&b, "Domain/context: %s\n", opts.Domain)
	}
	b.WriteString("\nContent to translate:\n")
	b.WriteString(content)
	b.WriteString("\n\nProvide only the translated content, maintaining the same structure and formatting.")
	return b.String()
}

func sentimentPrompt(content string) string {
	return `Analyze the tone and sentiment of the following content:

` + content + `

Provide:
1. Primary tone (formal, casual, friendly, professional, humorous, serious, enthusiastic, neutral)
2. Tone confidence (0-100)
3. Alternative tones with confidence scores
4. Sentiment (positive, neutral, negative)
5. Sentiment score (-1 to 1, where -1 is very negative and 1 is very positive)
6. Sentiment confidence (0-100)
7. Key emotional markers (words/phrases that indicate emotion)
8. Suggestions for adjusting tone or sentiment if needed

Format as JSON:
{
  "tone": {
    "tone": "primary tone",
    "confidence": number,
    "alternativeTones": [
      {"tone": "alternative", "confidence": number}
    ]
  },
  "sentiment": {
    "sentiment": "positive|neutral|negative",
    "score": number,
    "confidence": number
  },
  "emotionalMarkers": ["marker1", "marker2"],
  "suggestions": ["suggestion1", "suggestion2"]
}`
}

func scorePrompt(content, brandVoice string) string {
	var b strings.Builder
	b.WriteString("Analyze the following content and provide a comprehensive score (0-100) for each metric. Be critical but fair.\n\n")
	b.WriteString("Content to analyze:\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	if brandVoice != "" {
		fmt.Fprintf(&b, "Brand Voice Guidelines: %s\n\n", brandVoice)
	}
	b.WriteString(`Provide scores for:
1. Readability (0-100) - How easy is it to read and understand?
2. SEO Optimization (0-100) - How well optimized for search engines?
3. Engagement Potential (0-100) - How engaging and compelling?
4. Originality (0-100) - How unique and original?
`)
	if brandVoice != "" {
		b.WriteString("5. Brand Alignment (0-100) - How well does it match brand voice?\n")
	}
	b.WriteString(`
Also provide 3-5 specific, actionable suggestions for improvement.

Format your response as JSON:
{
  "readability": number,
  "seo": number,
  "engagement": number,
  "originality": number,
`)
	if brandVoice != "" {
		b.WriteString("  \"brandAlignment\": number,\n")
	}
	b.WriteString(`  "suggestions": ["suggestion1", "suggestion2", ...]
}`)
	return b.String()
}

const plagiarismExcerptLimit = 2000

func plagiarismPrompt(content string) string {
	excerpt := content
	if runes := []rune(content); len(runes) > plagiarismExcerptLimit {
		excerpt = string(runes[:plagiarismExcerptLimit]) + "..."
	}
	return `Analyze the following content for potential plagiarism or unoriginal content.
Look for:
1. Common phrases that appear frequently online
2. Content that seems copied or paraphrased
3. Lack of original thought or unique perspective

Content to check:
` + excerpt + `

Provide:
1. Overall similarity score (0-100, where 0 is completely original and 100 is completely plagiarized)
2. Flag any sections that seem unoriginal (provide the text and similarity score)
3. Note if the content appears to be original

Format as JSON:
{
  "similarity": number,
  "isOriginal": boolean,
  "flaggedSections": [
    {
      "text": "exact text from content",
      "similarity": number,
      "reason": "why it's flagged"
    }
  ]
}`
}
