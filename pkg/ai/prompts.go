package ai

const NERSystemPrompt = `You are a named entity recognizer for news and social media claims. You only report what is literally written in the text.`

const NERPrompt = `
# Task Context
You are given numbered sentences taken from misinformation claims and fact checks.

# Background Data
%s

# Detailed Task Description & Rules
- Find every named entity mentioned in the sentences.
- Report each entity exactly as it is written in the sentence (same spelling, same casing). Do not normalize, translate or expand names.
- Report an entity once for every time it occurs. If "Russia" appears in three sentences, list it three times.
- Use one of these categories: PERSON, NORP, FAC, ORGANIZATION, LOCATION, PRODUCT, EVENT, WORK_OF_ART, LAW, LANGUAGE, DATE, TIME, PERCENT, MONEY, QUANTITY, ORDINAL, CARDINAL.
- Pronouns and generic nouns ("the government", "they") are not named entities.

# Examples
Sentence: "Zelensky said Ukraine would never join NATO before 2030."
Entities: Zelensky (PERSON), Ukraine (LOCATION), NATO (ORGANIZATION), 2030 (DATE)

# Output Formatting
Return a JSON object of the form {"entities": [{"text": "...", "category": "..."}]}.
Return {"entities": []} when there is nothing to report.
`
