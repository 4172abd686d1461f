package crm

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS "Customers" (
	"CustomerID" INTEGER PRIMARY KEY,
	"Name" TEXT NOT NULL,
	"Email" TEXT,
	"Phone" TEXT,
	"CurrentInteractionID" INTEGER
);

CREATE TABLE IF NOT EXISTS "InteractionHistory" (
	"InteractionID" INTEGER PRIMARY KEY AUTOINCREMENT,
	"CustomerID" INTEGER NOT NULL REFERENCES "Customers"("CustomerID"),
	"LastDealStatus" TEXT,
	"InteractionDate" TIMESTAMP,
	"Notes" TEXT,
	"Intention" TEXT,
	"Sentiment" TEXT,
	"Tone" TEXT
);

CREATE TABLE IF NOT EXISTS "Recommendations" (
	"RecommendationID" INTEGER PRIMARY KEY AUTOINCREMENT,
	"CustomerID" INTEGER NOT NULL REFERENCES "Customers"("CustomerID"),
	"RecommendedDeal" TEXT,
	"Date" TIMESTAMP
);

CREATE TABLE IF NOT EXISTS "Products" (
	"ProductID" INTEGER PRIMARY KEY AUTOINCREMENT,
	"Name" TEXT NOT NULL,
	"Category" TEXT,
	"StartPrice" REAL,
	"PriceLimit" REAL,
	"Availability" TEXT
);

CREATE INDEX IF NOT EXISTS idx_customers_name ON "Customers"("Name");
CREATE INDEX IF NOT EXISTS idx_interactions_customer ON "InteractionHistory"("CustomerID", "InteractionDate");
CREATE INDEX IF NOT EXISTS idx_recommendations_customer ON "Recommendations"("CustomerID", "Date");
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS "Customers" (
	"CustomerID" BIGINT PRIMARY KEY,
	"Name" TEXT NOT NULL,
	"Email" TEXT,
	"Phone" TEXT,
	"CurrentInteractionID" BIGINT
);

CREATE TABLE IF NOT EXISTS "InteractionHistory" (
	"InteractionID" BIGSERIAL PRIMARY KEY,
	"CustomerID" BIGINT NOT NULL REFERENCES "Customers"("CustomerID"),
	"LastDealStatus" TEXT,
	"InteractionDate" TIMESTAMPTZ,
	"Notes" TEXT,
	"Intention" TEXT,
	"Sentiment" TEXT,
	"Tone" TEXT
);

CREATE TABLE IF NOT EXISTS "Recommendations" (
	"RecommendationID" BIGSERIAL PRIMARY KEY,
	"CustomerID" BIGINT NOT NULL REFERENCES "Customers"("CustomerID"),
	"RecommendedDeal" TEXT,
	"Date" TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS "Products" (
	"ProductID" BIGSERIAL PRIMARY KEY,
	"Name" TEXT NOT NULL,
	"Category" TEXT,
	"StartPrice" DOUBLE PRECISION,
	"PriceLimit" DOUBLE PRECISION,
	"Availability" TEXT
);

ALTER TABLE "Customers" ADD COLUMN IF NOT EXISTS "CurrentInteractionID" BIGINT;

CREATE INDEX IF NOT EXISTS idx_customers_name ON "Customers"("Name");
CREATE INDEX IF NOT EXISTS idx_interactions_customer ON "InteractionHistory"("CustomerID", "InteractionDate");
CREATE INDEX IF NOT EXISTS idx_recommendations_customer ON "Recommendations"("CustomerID", "Date");
`
