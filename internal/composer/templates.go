package composer

import "github.com/sells-group/wealth-dataset/internal/catalog"

// Placeholders are written as {name} and filled by scene.render. Money
// placeholders expand to "$" plus a thousands-separated integer.

var goalTemplates = []string{
	"{age}-year-old {family}, {income} annual income. Wants to {goal}.",
	"{age} years old, {family}, earning {income} annually. Goal: {goal}.",
	"{age}-year-old {family} making {income}/year. Looking to {goal}.",
}

var challengeTemplates = []string{
	"{age}-year-old {family}, {income} annual income, {savings} in savings. Struggling with {challenge}.",
	"{age} years old, {family}, {income}/year. Challenge: {challenge}. {savings} saved.",
	"{age}-year-old {family} earning {income} with {savings} saved. Difficulty with {challenge}.",
}

var productTemplates = []string{
	"{age}-year-old {family}, {income} income. Confused about {product}. Needs simple explanation.",
	"{age} years old, {family}, earning {income}. Considering {product} to {goal}. Explain benefits.",
	"{age}-year-old {family} making {income}. Heard about {product}, wants it demystified.",
}

var complexTemplates = []string{
	"{age}-year-old {family}, {income} annual income, {savings} in savings. Recently paused retirement contributions due to {challenge}. Need to rebuild confidence and refocus on long-term goals without adding financial strain.",
	"{age} years old, {family}, {income} income, {savings} saved, {debt} in debt. Wants to {goal} while dealing with {challenge}. Feeling overwhelmed.",
	"{age}-year-old {family} earning {income}, {savings} saved. Challenge: {challenge}. Goal: {goal}. Needs help prioritizing and balancing everything.",
}

var hsbcTemplates = []string{
	// Cross-border
	"{age}-year-old {family} moving from Hong Kong to Singapore, {income} income, {savings} in assets. Need help with cross-border wealth transfer, tax implications, and setting up banking in new jurisdiction.",
	"{age} years old, {family}, managing wealth across UK-HKD-SGD currencies. {income} annual income, {savings} portfolio. Looking to optimize currency exposure and reduce FX risk.",
	"{age}-year-old {family}, {income} income. Participating in Greater Bay Area Wealth Connect. Wants to understand investment limits, eligible products, and cross-border tax treatment.",

	// Tier progression
	"{age} years old, {family}, currently HSBC Premier with {savings} in assets. {income} annual income. Close to Jade tier threshold - want strategy to reach $1.2M and access alternative investments.",
	"{age}-year-old {family}, Jade client with {savings}, {income} income. Considering transition to Private Banking. What additional services and investment opportunities become available at $5M+ level?",

	// ESG and sustainable investing
	"{age}-year-old {family}, {income} income, {savings} portfolio. Want to transition entire portfolio to ESG-aligned investments. Concerned about greenwashing and measuring real impact.",
	"{age} years old, {family}, {income} annual income. Interested in SDG-aligned emerging market bonds and climate solutions funds. Need education on sustainable investing options and performance expectations.",
	"{age}-year-old {family} with {savings} portfolio. Want to establish donor-advised fund for systematic philanthropy while maintaining ESG investment approach. Looking for tax-efficient structure.",

	// Business owners
	"{age}-year-old entrepreneur, {family}, preparing to sell family business. Expecting {double_savings} liquidity event within 12 months. Need comprehensive tax planning, investment strategy, and wealth structure before exit.",
	"{age} years old, {family}, serial entrepreneur with {income} annual income but lumpy. {savings} saved. Need strategy to smooth income, separate business risk from family wealth, and plan for next venture.",
	"{age}-year-old family business owner, second generation, {income} income. Managing succession planning with three siblings. Need governance structure and fair distribution strategy.",

	// Equity compensation
	"{age}-year-old tech professional, {family}, {income} base salary plus {half_income} in RSUs vesting annually. 60% of net worth concentrated in employer stock. Need diversification strategy and tax planning.",
	"{age} years old, startup founder post-Series B, {family}. Sitting on {savings} in illiquid equity. {income} salary. ISO exercise deadline approaching - need to evaluate tax implications and liquidity options.",

	// International education
	"{age}-year-old expat couple, {family}, {income} income. Two children heading to US/UK universities in 2-4 years. Need international education funding strategy accounting for currency risk and tax optimization.",
	"{age} years old, {family}, {income} annual income, {savings} saved. Grandchildren attending international schools in three different countries. Want to establish education trusts with cross-border efficiency.",

	// Repatriation and relocation
	"{age}-year-old {family}, returning to mainland China after 15 years in Singapore. {income} income, {savings} in assets. Need repatriation strategy, understand investment restrictions, and optimize tax position.",
	"{age} years old, {family}, relocating from London to Dubai for career. {income} income, {savings} portfolio. Need to understand UAE wealth management landscape, tax advantages, and maintain UK property investments.",

	// Retirement and legacy
	"{age}-year-old {family}, {income} pension income, {savings} portfolio. Properties in Hong Kong and Vancouver. Need cross-border estate plan to minimize taxes and ensure smooth transfer to children in different countries.",
	"{age} years old, {family}, recently retired with {savings} portfolio generating {income} annually. Concerned about sequence of returns risk and making portfolio last 30+ years across multiple currencies.",

	// Alternatives
	"{age}-year-old Jade client, {family}, {income} income, {savings} portfolio currently 80% public equities. Want exposure to private equity and alternative investments. Need education on illiquidity, fees, and allocation strategy.",
	"{age} years old, UHNW client, {family}, {income} annual income, {savings} AUM. Interested in art financing and collectibles as part of portfolio. Want to understand lending ratios and integration with overall wealth strategy.",

	// Multi-generational wealth
	"{age}-year-old {family}, managing {savings} multi-generational family wealth. Three adult children with different risk tolerances and ESG preferences. Need family governance framework and customized sub-portfolios.",
	"{age} years old, {family}, inherited {savings} from parents. {income} own income. Next generation (millennials) demanding 100% sustainable investing while preserving family wealth. Need transition strategy.",
}

var marketTemplates = []string{
	"{age}-year-old {family} based in {market}, {income} annual income, {savings} in savings held in {currencies}. Client {scenario}. Wants to {goal} but worried about {challenge}.",
	"{age} years old, {family} in {market}. Earning {income}, {savings} saved. Asking whether {product} fits their plan to {goal}.",
	"{age}-year-old {market} client, {family}, {income} income. Client {scenario}. Challenge: {challenge}. Needs guidance on managing {currencies} exposure.",
	"{age} years old, {family}, {income}/year with {savings} across {currencies} accounts in {market}. Heard about {product} and wants to understand how it helps with {challenge}.",
	"{age}-year-old {family} in {market}, {savings} portfolio, {income} income. Goal: {goal}. Considering {product}. Client {scenario}.",
}

var tierTemplates = map[catalog.Complexity][]string{
	catalog.Moderate: {
		"{age}-year-old {family}, {tier} client with {assets} in assets and {income} income. New to investing beyond deposits. Wants a simple explanation of {product} and how it supports {need}.",
		"{age} years old, {family}, {income} annual income, {assets} with the bank as a {tier} client. Focused on {need}. Needs clear, jargon-free next steps.",
		"{age}-year-old {tier} client, {family}, earning {income} with {assets} saved. Asked about {product}. Wants to know where to start with {need}.",
	},
	catalog.Sophisticated: {
		"{age}-year-old {family}, {tier} client, {assets} in investable assets, {income} income. Evaluating {product} as part of a strategy for {need}. Wants to understand trade-offs and portfolio fit.",
		"{age} years old, {family}, {tier} relationship with {assets} AUM and {income} annual income. Priority: {need}. Considering {product} alongside existing holdings.",
		"{age}-year-old {tier} client, {family}, {income} income, {assets} portfolio. Needs a strategic plan for {need}, including whether {product} adds value after fees and liquidity.",
	},
	catalog.HighlyComplex: {
		"{age}-year-old UHNW {family}, {tier} client with {assets} across multiple booking centres and {income} annual income. Requires a coordinated approach to {need} using {product}, across jurisdictions and entities.",
		"{age} years old, {family}, {tier} relationship, {assets} net worth, {income} income. Family office is reviewing {product}. Needs technical analysis of structuring, tax and governance for {need}.",
		"{age}-year-old {family}, {tier} client, {assets} in assets and {income} in annual income. Complex situation around {need}. Requests a bespoke proposal integrating {product} with existing trusts and holding companies.",
	},
}
