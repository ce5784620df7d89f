package extract

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a mining industry analyst extracting financial data from technical reports (NI 43-101, PEA, PFS, feasibility studies) and related disclosure documents. You respond only with JSON. Never invent numbers that are not present in the document text.`

const broadPromptTemplate = `Extract financial and project data from this mining document text.

Project: %s
Company: %s
Source: %s

Document text:
---
%s
---

Return ONLY a JSON object with these fields (use null when the document does not state a value):
{
  "company_name": string or null,
  "project_name": string or null,
  "npv": number or null,
  "irr": number or null,
  "capex": number or null,
  "opex": number or null,
  "payback_years": number or null,
  "discount_rate": number or null,
  "mine_life": number or null,
  "location": string or null,
  "stage": string or null,
  "commodities": array of strings or null,
  "resource": string or null,
  "reserve": string or null,
  "description": string or null
}

Rules:
- npv, capex, opex: millions of USD (e.g. $1.2 billion -> 1200). Prefer post-tax NPV when both pre-tax and post-tax are given.
- irr, discount_rate: bare percentage numbers (e.g. 22.5%% -> 22.5). Prefer post-tax IRR.
- payback_years, mine_life: years as numbers.
- commodities: capitalized names, e.g. ["Gold", "Copper"].
- stage: one of Exploration, PEA, Pre-Feasibility, Feasibility, Permitting, Construction, Production, Care and Maintenance.
- resource, reserve: the headline tonnage and grade statement as a short string.
- description: one or two sentences describing the project.
- Do not guess. If a value is not in the text, use null.`

const focusedPromptTemplate = `This mining document was already processed once but the following critical financial metrics were not found: %s.

Search this document text carefully for those metrics only. They may appear in tables, sensitivity analyses, or executive summary paragraphs, possibly under alternate names (e.g. "initial capital" for capex, "after-tax NPV5%%" for npv).

Project: %s
Source: %s

Document text:
---
%s
---

Return ONLY a JSON object containing exactly these keys: %s.
Values are numbers or null. npv and capex in millions of USD; irr as a bare percentage. Prefer post-tax figures. Use null only if the metric truly does not appear.`

func broadPrompt(text string, doc Context) string {
	project := doc.ProjectName
	if project == "" {
		project = "unknown"
	}
	company := doc.CompanyName
	if company == "" {
		company = "unknown"
	}
	return fmt.Sprintf(broadPromptTemplate, project, company, doc.SourceURL, text)
}

func focusedPrompt(text string, doc Context, missing []string) string {
	project := doc.ProjectName
	if project == "" {
		project = "unknown"
	}
	fields := strings.Join(missing, ", ")
	return fmt.Sprintf(focusedPromptTemplate, fields, project, doc.SourceURL, text, fields)
}
