package summarize

// DefaultChunkPrompt asks for a detailed analysis of one chunk.
const DefaultChunkPrompt = `Conduct a holistic, precision-driven text comprehension analysis. Your goal is to maintain 100% information integrity while preserving exact contextual nuances.

Deliver:

1. An exhaustive factual summary capturing all key events and details without distortion or omission.
2. A thematic analysis exploring core ideas and recurring motifs.
3. A deep symbolic/metaphorical interpretation supported by textual evidence.
4. Extraction of five pivotal narrative components with justification.

Map out with full detail:

1. All character interactions and relationships.
2. The complete plot progression with no missing elements.
3. Narrative techniques, including structural choices, perspective, and literary devices.
4. A linguistic breakdown covering syntax, diction, tone, narrative voice, and literary techniques.
`

// DefaultFinalPrompt asks the model to merge chunk summaries into one analysis.
const DefaultFinalPrompt = `Synthesize and refine the following chunk summaries into a single, cohesive analysis of the text while ensuring no loss of critical details of the plot, characters, etc.

1. Eliminate redundant information and merge similar themes.
2. Resolve inconsistencies between chunk summaries while maintaining narrative accuracy.
3. Preserve essential details, thematic depth, and symbolic/metaphorical interpretations.
4. Identify overarching patterns and insights that emerge when considering the full text holistically.

Provide a final summary that includes:
1. An exhaustive factual summary capturing all key events and details without distortion or omission.
2. The complete plot progression with no missing elements.
3. A thematic analysis exploring core ideas and recurring motifs across chunks.
4. A deep symbolic/metaphorical interpretation supported by textual evidence.
5. Extraction of five pivotal narrative components with justification.
6. All character interactions and relationships.
7. A linguistic breakdown covering syntax, diction, tone, narrative voice, and literary techniques.

Ensure the response is **cohesive, structured, and contextually precise** while removing redundancy. Maintain a professional and analytical tone.
`
