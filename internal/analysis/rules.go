package analysis

// DefaultNormalizationRules removes case, punctuation and formatting
// differences but keeps the script of a name.
const DefaultNormalizationRules = `
:: Lower ()
:: NFC ()
'№' > 'no'
'n°' > 'no'
'nº' > 'no'
ª > a
º > o
ß > 'ss'
:: Punctuation-Space ()
:: Remove-Format ()
:: Collapse-Space ()
`

// DefaultTransliterationRules fold normalized names to lower-case ASCII
// letters, digits and blanks.
const DefaultTransliterationRules = `
:: Any-ASCII ()
:: Lower ()
:: Keep-Alnum ()
`

// collapseSpaceRule is appended to the transliteration rules before they
// are compiled.
const collapseSpaceRule = "\n:: Collapse-Space ()\n"
