package llm

// batchScoringPromptTemplate asks for one JSON object per article,
// indexed so responses can be mapped back even when the model reorders
// them. %s is the JSON payload of candidate articles.
const batchScoringPromptTemplate = `You are rating news articles for a civil services exam aspirant.
For EVERY article in the input, return one JSON object with these fields:
  "index": the article's index from the input,
  "relevance": exam relevance 0-100,
  "factual_score": factual density 0-100,
  "analytical_score": analytical depth 0-100,
  "category": one of polity, economy, environment, science, international, society, security, general,
  "gs_paper": the primary General Studies paper, one of GS1, GS2, GS3, GS4,
  "key_facts": up to 5 short factual statements,
  "keywords": up to 8 topic keywords,
  "syllabus_topics": matched syllabus topics.

Respond with a JSON array only, no prose, no markdown fences.

Articles:
%s`

// cardPromptTemplate asks for a study card for one article. The score
// fields let the response refresh the pass 1 ratings.
const cardPromptTemplate = `You are preparing a daily current-affairs knowledge card for a civil services exam aspirant.

Article title: %s
Source: %s
Pass 1 ratings: relevance %d, factual %d, analytical %d

Article text:
%s

Return a single JSON object with these fields:
  "headline": one distilled line,
  "facts": 3-6 facts worth memorizing,
  "context": one background paragraph,
  "connections": related syllabus themes,
  "exam_angle": how this could be asked in the exam,
  "relevance": refreshed relevance 0-100,
  "factual_score": refreshed factual score 0-100,
  "analytical_score": refreshed analytical score 0-100.

Respond with the JSON object only, no prose, no markdown fences.`
